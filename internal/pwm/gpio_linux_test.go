//go:build linux

package pwm

import "testing"

type fakeLine struct {
	values []int
	closed bool
}

func (l *fakeLine) SetValue(v int) error {
	l.values = append(l.values, v)
	return nil
}

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func TestGPIO_OnOff(t *testing.T) {
	line := &fakeLine{}
	var requested uint32
	old := requestLineFn
	requestLineFn = func(pin uint32) (gpioLine, error) {
		requested = pin
		return line, nil
	}
	t.Cleanup(func() { requestLineFn = old })

	drv, err := openGPIO()
	if err != nil {
		t.Fatalf("openGPIO: %v", err)
	}
	if err := drv.Write(0, 1); err == nil {
		t.Fatalf("expected error before attach")
	}
	if err := drv.Setup(0, 25000, 8); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := drv.Attach(4, 0); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if requested != 4 {
		t.Fatalf("requested pin=%d want 4", requested)
	}
	_ = drv.Write(0, 170)
	_ = drv.Write(0, 0)
	if err := drv.Detach(4); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	want := []int{1, 0, 0}
	if len(line.values) != len(want) {
		t.Fatalf("values=%v want %v", line.values, want)
	}
	for i := range want {
		if line.values[i] != want[i] {
			t.Fatalf("values=%v want %v", line.values, want)
		}
	}
	if !line.closed {
		t.Fatalf("line not closed on detach")
	}
}
