package autodrive

import "time"

// pidController drives a measurement toward a setpoint and returns a signed
// control value within the configured limits.
//
// Not safe for concurrent use.
type pidController struct {
	kp, ki, kd float64
	setpoint   float64
	outMin     float64
	outMax     float64

	integral  float64
	prevError float64
	havePrev  bool
}

func newPID(kp, ki, kd float64) *pidController {
	return &pidController{kp: kp, ki: ki, kd: kd, outMin: -100, outMax: 0}
}

func (p *pidController) SetOutputLimits(min, max float64) {
	p.outMin = min
	p.outMax = max
}

// Set changes the setpoint and forgets accumulated state.
func (p *pidController) Set(setpoint float64) {
	p.setpoint = setpoint
	p.integral = 0
	p.prevError = 0
	p.havePrev = false
}

func (p *pidController) UpdateDuration(measurement float64, dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	sec := dt.Seconds()
	err := p.setpoint - measurement
	p.integral += err * sec
	// Anti-windup: keep the integral term inside the output range.
	if p.ki != 0 {
		p.integral = clamp(p.integral, p.outMin/p.ki, p.outMax/p.ki)
	}

	derivative := 0.0
	if p.havePrev {
		derivative = (err - p.prevError) / sec
	}
	p.prevError = err
	p.havePrev = true

	return clamp(p.kp*err+p.ki*p.integral+p.kd*derivative, p.outMin, p.outMax)
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
