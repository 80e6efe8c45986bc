package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Profile)
		want error
	}{
		{"default ok", func(p *Profile) {}, nil},
		{"empty name", func(p *Profile) { p.Name = "" }, ErrName},
		{"long name", func(p *Profile) { p.Name = "this name is far too long" }, ErrName},
		{"no blades", func(p *Profile) { p.ShutterBladeCount = 0 }, ErrBlades},
		{"five blades", func(p *Profile) { p.ShutterBladeCount = 5 }, ErrBlades},
		{"zero offset", func(p *Profile) { p.StartmarkOffset = 0 }, ErrOffset},
		{"gain too high", func(p *Profile) { p.I = 100 }, ErrGain},
		{"zero gains ok", func(p *Profile) { p.P, p.I, p.D = 0, 0, 0 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.edit(&p)
			if err := p.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuiltinProfiles(t *testing.T) {
	f := Builtin()
	p, err := f.Find("")
	if err != nil {
		t.Fatalf("Find default: %v", err)
	}
	if p.Name != "Bauer T610" || p.ShutterBladeCount != 2 {
		t.Errorf("default profile = %+v", p)
	}
	kp, ki, kd := p.Gains()
	if kp != 8 || ki != 3 || kd != 1 {
		t.Errorf("gains = %v %v %v", kp, ki, kd)
	}
}

func TestParseAppliesDefaultsAndRejectsBadInput(t *testing.T) {
	f, err := Parse([]byte(`
[[projector]]
name = "Minimal"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, _ := f.Find("")
	if p.ShutterBladeCount != 2 || p.StartmarkOffset != 30 {
		t.Errorf("defaults not applied: %+v", p)
	}

	bad := []string{
		``,
		`[[projector]]
name = "A"
shutter_blades = 7`,
		`default = "B"
[[projector]]
name = "A"`,
		`[[projector]]
name = "A"
[[projector]]
name = "A"`,
	}
	for _, src := range bad {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("Parse(%q) accepted invalid input", src)
		}
	}
}

func TestLoadCreatesAndSaveRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synkino", "profiles.toml")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}

	f.Projector = append(f.Projector, Profile{Name: "Custom", ShutterBladeCount: 4, StartmarkOffset: 12, P: 9})
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	p, err := again.Find("Custom")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.ShutterBladeCount != 4 || p.StartmarkOffset != 12 || p.P != 9 {
		t.Errorf("round trip = %+v", p)
	}
}
