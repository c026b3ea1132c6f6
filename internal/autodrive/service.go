package autodrive

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"xeon-pwm/internal/protocol"
)

const (
	ModeCurve = "curve"
	ModePID   = "pid"
)

// DutySetter is the controller connection the service drives.
type DutySetter interface {
	SetDutyCycle(duty int) error
	LastSettings() protocol.SettingsReport
}

type Config struct {
	// Mode is ModeCurve or ModePID.
	Mode string
	// Interval controls how often the temperature is sampled.
	Interval time.Duration
	// TargetC is the PID setpoint in degrees C.
	TargetC float64
	Points  []Point
}

type Snapshot struct {
	Running bool

	TempValid bool
	TempC     float64

	Percentage int
	DutyCycle  int

	LastUpdateAt time.Time
	LastError    string
}

// Service samples a Sensor and pushes the matching duty cycle to the
// controller.
type Service struct {
	cfg    Config
	dev    DutySetter
	sensor Sensor
	curve  Curve
	pid    *pidController

	mu   sync.RWMutex
	snap Snapshot

	// Touched only by the loop goroutine (or by Step in tests).
	lastTemp int
	lastDuty int

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(cfg Config, dev DutySetter, sensor Sensor) *Service {
	if cfg.Mode == "" {
		cfg.Mode = ModeCurve
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.TargetC == 0 {
		cfg.TargetC = 50.0
	}
	s := &Service{
		cfg:      cfg,
		dev:      dev,
		sensor:   sensor,
		curve:    NewCurve(cfg.Points),
		lastTemp: math.MinInt,
		lastDuty: -1,
		stopCh:   make(chan struct{}),
	}
	if cfg.Mode == ModePID {
		s.pid = newPID(0.2, 0.2, 0.1)
		s.pid.SetOutputLimits(-100, 0)
		s.pid.Set(cfg.TargetC)
	}
	return s
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Start applies the current temperature immediately and then keeps sampling in
// the background until ctx is done or Close is called.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("autodrive: service is nil")
	}
	switch s.cfg.Mode {
	case ModeCurve, ModePID:
	default:
		return fmt.Errorf("autodrive: unknown mode %q", s.cfg.Mode)
	}

	s.setState(func(sn *Snapshot) { sn.Running = true })
	s.Step()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.setState(func(sn *Snapshot) { sn.Running = false })
		s.runLoop(ctx)
	}()
	return nil
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Done is closed once Close has been called.
func (s *Service) Done() <-chan struct{} {
	return s.stopCh
}

func (s *Service) runLoop(ctx context.Context) {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			s.Step()
		}
	}
}

// Step samples the sensor once and pushes a new duty cycle if needed.
func (s *Service) Step() {
	tempC, err := s.sensor.TempC()
	if err != nil {
		s.setState(func(sn *Snapshot) {
			sn.TempValid = false
			sn.LastError = err.Error()
		})
		// Without a temperature the fan runs at full speed.
		s.lastTemp = math.MinInt
		s.push(100)
		return
	}
	s.setState(func(sn *Snapshot) {
		sn.TempValid = true
		sn.TempC = tempC
	})

	var pct int
	switch s.cfg.Mode {
	case ModePID:
		pct = int(math.Round(-s.pid.UpdateDuration(tempC, s.cfg.Interval)))
	default:
		whole := int(math.Round(tempC))
		if whole == s.lastTemp {
			return
		}
		s.lastTemp = whole
		pct = s.curve.Percentage(whole)
	}
	glog.V(1).Infof("autodrive: temp=%.1fC pct=%d", tempC, pct)
	s.push(pct)
}

func (s *Service) push(pct int) {
	duty := DutyForPercentage(pct, s.dev.LastSettings().MaxDutyCycle)
	if duty == s.lastDuty {
		return
	}
	if err := s.dev.SetDutyCycle(duty); err != nil {
		glog.Warningf("autodrive: set duty %d: %v", duty, err)
		s.setState(func(sn *Snapshot) {
			sn.LastError = fmt.Sprintf("autodrive: set duty failed: %v", err)
		})
		// Retry on the next sample.
		s.lastTemp = math.MinInt
		s.lastDuty = -1
		return
	}
	glog.Infof("autodrive: duty cycle %d (%d%%)", duty, pct)
	s.lastDuty = duty
	s.setState(func(sn *Snapshot) {
		sn.Percentage = pct
		sn.DutyCycle = duty
		sn.LastError = ""
	})
}

func (s *Service) setState(update func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.snap)
	s.snap.LastUpdateAt = time.Now().UTC()
}
