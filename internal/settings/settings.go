package settings

import (
	"fmt"

	"xeon-pwm/internal/protocol"
)

// Namespace groups the PWM keys in the key-value store.
const Namespace = "xeon-pwm"

const (
	KeyFrequency  = "pwm-frequency"
	KeyChannel    = "pwm-channel"
	KeyResolution = "pwm-resolution"
	KeyPin        = "pwm-fan-pin"
)

const (
	DefaultChannel        = 0
	DefaultFrequencyHz    = 25000
	DefaultResolutionBits = 8
	DefaultPin            = 4

	MinResolutionBits = 1
	// MaxResolutionBits is the PWM generator's resolution ceiling.
	MaxResolutionBits = 16
)

// PWM is the persisted PWM configuration.
type PWM struct {
	Channel        uint32
	FrequencyHz    uint32
	ResolutionBits uint32
	Pin            uint32
}

func Defaults() PWM {
	return PWM{
		Channel:        DefaultChannel,
		FrequencyHz:    DefaultFrequencyHz,
		ResolutionBits: DefaultResolutionBits,
		Pin:            DefaultPin,
	}
}

func (p PWM) MaxDutyCycle() uint32 {
	return MaxDutyCycle(p.ResolutionBits)
}

// Report converts p to the SHOW_PWM_SETTINGS form. Resolution is reported as
// the clamped value the PWM output actually runs at.
func (p PWM) Report() protocol.SettingsReport {
	return protocol.SettingsReport{
		Channel:        p.Channel,
		FrequencyHz:    p.FrequencyHz,
		ResolutionBits: ClampResolution(p.ResolutionBits),
		Pin:            p.Pin,
		MaxDutyCycle:   p.MaxDutyCycle(),
	}
}

// ClampResolution bounds bits to [MinResolutionBits, MaxResolutionBits].
func ClampResolution(bits uint32) uint32 {
	if bits < MinResolutionBits {
		return MinResolutionBits
	}
	if bits > MaxResolutionBits {
		return MaxResolutionBits
	}
	return bits
}

// MaxDutyCycle returns 2^bits - 1 with bits clamped to the supported range.
func MaxDutyCycle(bits uint32) uint32 {
	return uint32(uint64(1)<<ClampResolution(bits) - 1)
}

// KV is the persistence capability: unsigned integers by key within one
// namespace, durable across restarts.
type KV interface {
	Uint(key string, def uint32) uint32
	PutUint(key string, v uint32) error
	Clear() error
	Close() error
}

// Store is typed access to the PWM keys. Reads fall back to the compiled-in
// defaults for keys that were never written or were cleared.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) Load() PWM {
	return PWM{
		Channel:        s.kv.Uint(KeyChannel, DefaultChannel),
		FrequencyHz:    s.kv.Uint(KeyFrequency, DefaultFrequencyHz),
		ResolutionBits: s.kv.Uint(KeyResolution, DefaultResolutionBits),
		Pin:            s.kv.Uint(KeyPin, DefaultPin),
	}
}

func (s *Store) SetFrequency(hz uint32) error {
	return s.put(KeyFrequency, hz)
}

func (s *Store) SetChannel(ch uint32) error {
	return s.put(KeyChannel, ch)
}

func (s *Store) SetResolution(bits uint32) error {
	return s.put(KeyResolution, bits)
}

// Reset removes every key so the next Load returns defaults.
func (s *Store) Reset() error {
	if err := s.kv.Clear(); err != nil {
		return fmt.Errorf("settings: clear: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) put(key string, v uint32) error {
	if err := s.kv.PutUint(key, v); err != nil {
		return fmt.Errorf("settings: put %s: %w", key, err)
	}
	return nil
}
