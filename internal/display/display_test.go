package display

import (
	"context"
	"testing"
)

func TestParseMonitor(t *testing.T) {
	tests := []struct {
		raw     string
		want    Monitor
		wantErr bool
	}{
		{raw: "2560x1440", want: Monitor{Width: 2560, Height: 1440, ScaleFactor: 1}},
		{raw: " 1440X900@2 ", want: Monitor{Width: 1440, Height: 900, ScaleFactor: 2}},
		{raw: "1920x1080@1.5", want: Monitor{Width: 1920, Height: 1080, ScaleFactor: 1.5}},
		{raw: "", wantErr: true},
		{raw: "1920", wantErr: true},
		{raw: "0x1080", wantErr: true},
		{raw: "1920x1080@0", wantErr: true},
		{raw: "1920x1080@big", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseMonitor(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseMonitor(%q) error = %v, wantErr %v", tc.raw, err, tc.wantErr)
		}
		if err == nil && got != tc.want {
			t.Fatalf("ParseMonitor(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestScaledResolution(t *testing.T) {
	m := Monitor{Width: 1440, Height: 900, ScaleFactor: 2}
	if m.ScaledWidth() != 2880 || m.ScaledHeight() != 1800 {
		t.Fatalf("scaled = %dx%d, want 2880x1800", m.ScaledWidth(), m.ScaledHeight())
	}
	if got := (Monitor{Width: 800, Height: 600}).ScaledWidth(); got != 800 {
		t.Fatalf("ScaledWidth() without scale = %d, want 800", got)
	}
}

func TestStaticProviderAssignsIDsAndCopies(t *testing.T) {
	p, err := ParseStaticProvider([]string{"1920x1080", "1280x1024"})
	if err != nil {
		t.Fatalf("ParseStaticProvider() error = %v", err)
	}
	monitors, err := p.Monitors(context.Background())
	if err != nil {
		t.Fatalf("Monitors() error = %v", err)
	}
	if len(monitors) != 2 || monitors[0].ID != "0" || monitors[1].ID != "1" {
		t.Fatalf("Monitors() = %+v, want two monitors with index IDs", monitors)
	}
	monitors[0].Width = 1
	again, _ := p.Monitors(context.Background())
	if again[0].Width != 1920 {
		t.Fatalf("Monitors() returned shared slice")
	}

	before := Fingerprint(again)
	p.Set(again[:1])
	after, _ := p.Monitors(context.Background())
	if Fingerprint(after) == before {
		t.Fatalf("Fingerprint() unchanged after unplugging a monitor")
	}
}

func TestParseStaticProviderDefault(t *testing.T) {
	p, err := ParseStaticProvider(nil)
	if err != nil {
		t.Fatalf("ParseStaticProvider(nil) error = %v", err)
	}
	monitors, _ := p.Monitors(context.Background())
	if len(monitors) != 1 || monitors[0] != DefaultMonitor {
		t.Fatalf("Monitors() = %+v, want default monitor", monitors)
	}
}

func TestExternal(t *testing.T) {
	got := External([]Monitor{{ID: "a"}, {ID: "b", Internal: true}, {ID: "c"}})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("External() = %+v, want a and c", got)
	}
}
