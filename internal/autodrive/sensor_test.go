package autodrive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseTempC(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"52000\n", 52},
		{"52", 52},
		{"  41500 ", 41.5},
	}
	for _, tc := range cases {
		v, err := parseTempC(tc.in)
		if err != nil {
			t.Fatalf("parseTempC(%q): %v", tc.in, err)
		}
		if v != tc.want {
			t.Fatalf("parseTempC(%q)=%v want %v", tc.in, v, tc.want)
		}
	}
	if _, err := parseTempC("\n"); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := parseTempC("hot"); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}

func TestFileSensor(t *testing.T) {
	p := filepath.Join(t.TempDir(), "temp")
	if err := os.WriteFile(p, []byte("42000\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	v, err := FileSensor{Path: p}.TempC()
	if err != nil {
		t.Fatalf("TempC: %v", err)
	}
	if v != 42.0 {
		t.Fatalf("v=%v want 42", v)
	}
}

func writeHwmon(t *testing.T, base, dev, name string, temps map[string]string) {
	t.Helper()
	dir := filepath.Join(base, dev)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "name"), []byte(name+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for f, v := range temps {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(v), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func TestCoretempSensor_ReportsHottestCore(t *testing.T) {
	base := t.TempDir()
	writeHwmon(t, base, "hwmon0", "acpitz", map[string]string{"temp1_input": "90000\n"})
	writeHwmon(t, base, "hwmon1", "coretemp", map[string]string{
		"temp1_input": "45000\n",
		"temp2_input": "61000\n",
	})
	writeHwmon(t, base, "hwmon2", "coretemp", map[string]string{"temp1_input": "58000\n"})

	v, err := CoretempSensor{Base: base}.TempC()
	if err != nil {
		t.Fatalf("TempC: %v", err)
	}
	if v != 61 {
		t.Fatalf("v=%v want 61", v)
	}
}

func TestCoretempSensor_NoDevice(t *testing.T) {
	base := t.TempDir()
	writeHwmon(t, base, "hwmon0", "nvme", map[string]string{"temp1_input": "30000\n"})
	if _, err := (CoretempSensor{Base: base}).TempC(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewSensor(t *testing.T) {
	if s, ok := NewSensor("/tmp/x").(FileSensor); !ok || s.Path != "/tmp/x" {
		t.Fatalf("NewSensor(path)=%#v", NewSensor("/tmp/x"))
	}
	if _, ok := NewSensor("coretemp").(CoretempSensor); !ok {
		t.Fatalf("NewSensor(coretemp) not a CoretempSensor")
	}
}
