//go:build linux

package pwm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeChip lays out base/pwmchipN (as a symlink, like the kernel does) with
// npwm channels, channel 0 already exported.
func fakeChip(t *testing.T, n int, npwm string) (base, chip string) {
	t.Helper()
	dir := t.TempDir()
	base = filepath.Join(dir, "pwm")
	realChip := filepath.Join(dir, "real", "chip")
	pwm0 := filepath.Join(realChip, "pwm0")
	if err := os.MkdirAll(pwm0, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	files := map[string]string{
		filepath.Join(realChip, "npwm"):   npwm,
		filepath.Join(realChip, "export"): "",
		filepath.Join(pwm0, "enable"):     "",
		filepath.Join(pwm0, "period"):     "",
		filepath.Join(pwm0, "duty_cycle"): "",
	}
	for p, v := range files {
		if err := os.WriteFile(p, []byte(v), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", p, err)
		}
	}
	chip = filepath.Join(base, "pwmchip"+string(rune('0'+n)))
	if err := os.Symlink(realChip, chip); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	return base, chip
}

func readAttr(t *testing.T, chip, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(chip, "pwm0", name))
	if err != nil {
		t.Fatalf("ReadFile %s: %v", name, err)
	}
	return strings.TrimSpace(string(b))
}

func TestSysfs_SetupAttachWriteDetach(t *testing.T) {
	base, chip := fakeChip(t, 0, "2\n")
	drv, err := openSysfs(base)
	if err != nil {
		t.Fatalf("openSysfs: %v", err)
	}

	if err := drv.Setup(0, 25000, 8); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if got := readAttr(t, chip, "period"); got != "40000" {
		t.Fatalf("period=%q want 40000", got)
	}
	if err := drv.Attach(4, 0); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if got := readAttr(t, chip, "enable"); got != "1" {
		t.Fatalf("enable=%q want 1", got)
	}
	if err := drv.Write(0, 255); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := readAttr(t, chip, "duty_cycle"); got != "40000" {
		t.Fatalf("duty_cycle=%q want 40000", got)
	}
	if err := drv.Detach(4); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if got := readAttr(t, chip, "enable"); got != "0" {
		t.Fatalf("enable=%q want 0", got)
	}
}

func TestSysfs_WriteUnconfiguredChannel(t *testing.T) {
	base, _ := fakeChip(t, 0, "2\n")
	drv, _ := openSysfs(base)
	if err := drv.Write(0, 1); err == nil {
		t.Fatalf("expected error before Setup")
	}
	if err := drv.Attach(4, 0); err == nil {
		t.Fatalf("expected error attaching before Setup")
	}
}

func TestFindPWMChip_ChannelCount(t *testing.T) {
	base, chip := fakeChip(t, 1, "1\n")
	got, err := findPWMChip(base, 0)
	if err != nil {
		t.Fatalf("findPWMChip: %v", err)
	}
	if got != chip {
		t.Fatalf("chip=%q want %q", got, chip)
	}
	if _, err := findPWMChip(base, 1); err == nil {
		t.Fatalf("expected error for channel beyond npwm")
	}
}

func TestSortChips(t *testing.T) {
	names := []string{"pwmchip10", "pwmchip2", "pwmchip0"}
	sortChips(names)
	want := []string{"pwmchip0", "pwmchip2", "pwmchip10"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names=%v want %v", names, want)
		}
	}
}
