package firmware

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.uber.org/multierr"

	"xeon-pwm/internal/protocol"
	"xeon-pwm/internal/pwm"
	"xeon-pwm/internal/settings"
)

// DefaultDutyCycle is the duty cycle applied at startup, before any command.
const DefaultDutyCycle = 170

const defaultPollInterval = 5 * time.Millisecond

type Config struct {
	// Debug echoes handler traces onto the transport ahead of the result code.
	Debug bool
	// PollInterval paces the control loop.
	PollInterval time.Duration
	// Restart replaces the running process. It normally does not return; if it
	// does, the RESTART command still answers ERR_SUCCESS.
	Restart func() error
}

// RuntimeState is the live, never-persisted part of the controller.
type RuntimeState struct {
	DutyCycle      uint32
	ResolutionBits uint32
	Pin            uint32
	Debug          bool
}

// Firmware owns the protocol loop: it reads one command per poll, runs its
// handler, answers with a result code, then re-applies the duty cycle.
//
// Not safe for concurrent use; Run is the only caller once started.
type Firmware struct {
	cfg      Config
	store    *settings.Store
	pwm      *pwm.Controller
	parser   *protocol.Parser
	out      *protocol.Writer
	handlers map[protocol.CommandID]handler
	state    RuntimeState
}

func New(cfg Config, t protocol.Transport, store *settings.Store, ctl *pwm.Controller) *Firmware {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	f := &Firmware{
		cfg:    cfg,
		store:  store,
		pwm:    ctl,
		parser: protocol.NewParser(t),
		out:    protocol.NewWriter(t),
	}
	f.handlers = commandTable()
	return f
}

// Start loads the persisted settings into the runtime state, announces them on
// the transport and configures the PWM output. A PWM configuration failure is
// logged, not returned, so the protocol stays reachable to fix the settings.
func (f *Firmware) Start() error {
	s := f.store.Load()
	f.state = RuntimeState{
		ResolutionBits: settings.ClampResolution(s.ResolutionBits),
		Pin:            s.Pin,
		Debug:          f.cfg.Debug,
	}
	f.state.DutyCycle = clampDuty(DefaultDutyCycle, f.state.ResolutionBits)

	f.out.Line(s.Report().Line())
	if err := f.out.Flush(); err != nil {
		return fmt.Errorf("firmware: write settings banner: %w", err)
	}

	if err := f.pwm.Configure(s); err != nil {
		glog.Warningf("firmware: %v", err)
	}
	glog.Infof("firmware: channel=%d freq=%dHz res=%d pin=%d duty=%d",
		s.Channel, s.FrequencyHz, f.state.ResolutionBits, s.Pin, f.state.DutyCycle)
	return nil
}

// State returns a copy of the runtime state.
func (f *Firmware) State() RuntimeState {
	return f.state
}

// Run polls until ctx is done or the transport fails.
func (f *Firmware) Run(ctx context.Context) error {
	t := time.NewTicker(f.cfg.PollInterval)
	defer t.Stop()
	for {
		if err := f.Poll(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Poll runs one loop iteration: at most one command, then the duty cycle write.
func (f *Firmware) Poll() error {
	if err := f.handleCommand(); err != nil {
		return err
	}
	_ = f.pwm.SetDuty(f.state.DutyCycle)
	return nil
}

// Close releases the settings store and detaches the PWM output.
func (f *Firmware) Close() error {
	return multierr.Combine(f.store.Close(), f.pwm.Detach())
}

func (f *Firmware) handleCommand() error {
	n, err := f.parser.Available()
	if err != nil {
		return fmt.Errorf("firmware: poll transport: %w", err)
	}
	if n == 0 {
		return nil
	}
	name, ok, err := f.parser.Next()
	if err != nil {
		return fmt.Errorf("firmware: read command: %w", err)
	}
	if !ok {
		return nil
	}

	result := protocol.ErrInvalidCommand
	id := protocol.LookupCommand(name)
	if h, known := f.handlers[id]; known {
		result = h(f)
	}
	if err := f.parser.Err(); err != nil {
		return fmt.Errorf("firmware: read %s arguments: %w", id, err)
	}
	// Whatever the handler left on the line is dropped, so an unknown command or
	// stray arguments cannot shift the next request.
	if err := f.parser.Flush(); err != nil {
		return fmt.Errorf("firmware: flush input: %w", err)
	}
	glog.V(1).Infof("firmware: %q -> %d (%s)", name, uint32(result), result)

	f.out.Result(result)
	if err := f.out.Flush(); err != nil {
		return fmt.Errorf("firmware: write result: %w", err)
	}
	return nil
}

func (f *Firmware) debugf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	glog.V(1).Info(msg)
	if f.state.Debug {
		f.out.Line(msg)
	}
}

// persist logs store failures. Store writes are best-effort from the protocol's
// point of view: the command still answers with its normal result.
func (f *Firmware) persist(err error) {
	if err != nil {
		glog.Warningf("firmware: %v", err)
	}
}

func clampDuty(v int64, resolutionBits uint32) uint32 {
	if v < 0 {
		return 0
	}
	max := settings.MaxDutyCycle(resolutionBits)
	if uint64(v) > uint64(max) {
		return max
	}
	return uint32(v)
}

// toUint32 maps a parsed integer onto a setting value: negatives become 0 and
// large values saturate.
func toUint32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	if v > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(v)
}
