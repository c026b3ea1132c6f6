package settings

import (
	"errors"
	"testing"
)

type mapKV struct {
	m      map[string]uint32
	putErr error
}

func newMapKV() *mapKV { return &mapKV{m: map[string]uint32{}} }

func (k *mapKV) Uint(key string, def uint32) uint32 {
	if v, ok := k.m[key]; ok {
		return v
	}
	return def
}

func (k *mapKV) PutUint(key string, v uint32) error {
	if k.putErr != nil {
		return k.putErr
	}
	k.m[key] = v
	return nil
}

func (k *mapKV) Clear() error {
	k.m = map[string]uint32{}
	return nil
}

func (k *mapKV) Close() error { return nil }

func TestMaxDutyCycle(t *testing.T) {
	cases := []struct {
		bits uint32
		want uint32
	}{
		{0, 1},
		{1, 1},
		{8, 255},
		{10, 1023},
		{16, 65535},
		{40, 65535},
	}
	for _, tc := range cases {
		if got := MaxDutyCycle(tc.bits); got != tc.want {
			t.Fatalf("MaxDutyCycle(%d)=%d want %d", tc.bits, got, tc.want)
		}
	}
}

func TestStore_DefaultsWhenEmpty(t *testing.T) {
	s := NewStore(newMapKV())
	if got := s.Load(); got != Defaults() {
		t.Fatalf("Load=%+v want %+v", got, Defaults())
	}
	if got := s.Load().Report().Line(); got != "0|25000|8|4|255" {
		t.Fatalf("report=%q", got)
	}
}

func TestReport_ClampsStoredResolution(t *testing.T) {
	cases := []struct {
		bits uint32
		want string
	}{
		{0, "0|25000|1|4|1"},
		{40, "0|25000|16|4|65535"},
	}
	for _, tc := range cases {
		kv := newMapKV()
		kv.m[KeyResolution] = tc.bits
		if got := NewStore(kv).Load().Report().Line(); got != tc.want {
			t.Fatalf("stored res=%d report=%q want %q", tc.bits, got, tc.want)
		}
	}
}

func TestStore_PutAndReset(t *testing.T) {
	kv := newMapKV()
	s := NewStore(kv)
	if err := s.SetFrequency(30000); err != nil {
		t.Fatalf("SetFrequency: %v", err)
	}
	if err := s.SetChannel(2); err != nil {
		t.Fatalf("SetChannel: %v", err)
	}
	if err := s.SetResolution(10); err != nil {
		t.Fatalf("SetResolution: %v", err)
	}
	got := s.Load()
	want := PWM{Channel: 2, FrequencyHz: 30000, ResolutionBits: 10, Pin: DefaultPin}
	if got != want {
		t.Fatalf("Load=%+v want %+v", got, want)
	}
	if kv.m[KeyFrequency] != 30000 {
		t.Fatalf("key %s=%d want 30000", KeyFrequency, kv.m[KeyFrequency])
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := s.Load(); got != Defaults() {
		t.Fatalf("after reset Load=%+v want defaults", got)
	}
}

func TestStore_PutErrorWrapped(t *testing.T) {
	kv := newMapKV()
	kv.putErr = errors.New("disk full")
	err := NewStore(kv).SetFrequency(1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, kv.putErr) {
		t.Fatalf("err=%v does not wrap %v", err, kv.putErr)
	}
	if got, want := err.Error(), "settings: put pwm-frequency: disk full"; got != want {
		t.Fatalf("err=%q want %q", got, want)
	}
}
