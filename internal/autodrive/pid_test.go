package autodrive

import (
	"testing"
	"time"
)

func TestPID_UpdateDuration_ZeroDT(t *testing.T) {
	p := newPID(0.2, 0.2, 0.1)
	p.SetOutputLimits(-100, 0)
	p.Set(50)

	out := p.UpdateDuration(60, 0)
	if out != 0 {
		t.Fatalf("out=%v want 0", out)
	}
}

func TestPID_ClampsToLimits(t *testing.T) {
	p := newPID(10, 0, 0)
	p.SetOutputLimits(-5, 0)
	p.Set(50)

	out := p.UpdateDuration(100, 1*time.Second)
	if out != -5 {
		t.Fatalf("out=%v want -5", out)
	}

	out = p.UpdateDuration(-100, 1*time.Second)
	if out != 0 {
		t.Fatalf("out=%v want 0", out)
	}
}

func TestPID_SignConvention(t *testing.T) {
	p := newPID(0.2, 0, 0)
	p.SetOutputLimits(-100, 0)
	p.Set(50)

	// Hotter than the setpoint asks for more cooling.
	out := p.UpdateDuration(60, 1*time.Second)
	if out >= 0 {
		t.Fatalf("out=%v want negative", out)
	}
}

func TestPID_IntegralDoesNotWindUp(t *testing.T) {
	p := newPID(0, 1, 0)
	p.SetOutputLimits(-100, 0)
	p.Set(50)

	for i := 0; i < 100; i++ {
		p.UpdateDuration(90, time.Second)
	}
	// One sample below the setpoint must move the output off the rail.
	out := p.UpdateDuration(40, time.Second)
	if out <= -100 {
		t.Fatalf("out=%v want above -100 after cooling", out)
	}
}
