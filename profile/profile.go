// Package profile holds projector profiles: shutter geometry, start-mark
// distance and the speed-loop gains.
package profile

import "errors"

// Profile describes one projector.
type Profile struct {
	Name              string `toml:"name" yaml:"name"`
	ShutterBladeCount uint8  `toml:"shutter_blades" yaml:"shutter_blades"`
	StartmarkOffset   uint8  `toml:"startmark_offset" yaml:"startmark_offset"` // frames from mark to first picture
	P                 uint8  `toml:"p" yaml:"p"`
	I                 uint8  `toml:"i" yaml:"i"`
	D                 uint8  `toml:"d" yaml:"d"`
}

// Limits
const (
	MaxBlades   = 4
	MaxOffset   = 255
	MaxGain     = 99
	MaxNameLen  = 20
	MaxProfiles = 8
)

var (
	ErrName   = errors.New("profile: name must be 1-20 characters")
	ErrBlades = errors.New("profile: shutter blade count must be 1-4")
	ErrOffset = errors.New("profile: start mark offset must be 1-255")
	ErrGain   = errors.New("profile: P, I and D must be 0-99")
)

// Default is the compiled-in profile used when nothing is configured.
func Default() Profile {
	return Profile{
		Name:              "Default",
		ShutterBladeCount: 2,
		StartmarkOffset:   30,
		P:                 8,
		I:                 3,
		D:                 1,
	}
}

// Validate checks the ranges accepted by the engine.
func (p Profile) Validate() error {
	if len(p.Name) == 0 || len(p.Name) > MaxNameLen {
		return ErrName
	}
	if p.ShutterBladeCount < 1 || p.ShutterBladeCount > MaxBlades {
		return ErrBlades
	}
	if p.StartmarkOffset < 1 {
		return ErrOffset
	}
	if p.P > MaxGain || p.I > MaxGain || p.D > MaxGain {
		return ErrGain
	}
	return nil
}

// ApplyDefaults fills zero geometry with the default profile's values.
// Gains of zero are legal and left alone.
func (p *Profile) ApplyDefaults() {
	def := Default()
	if p.ShutterBladeCount == 0 {
		p.ShutterBladeCount = def.ShutterBladeCount
	}
	if p.StartmarkOffset == 0 {
		p.StartmarkOffset = def.StartmarkOffset
	}
}

// Gains returns P, I and D as controller tunings.
func (p Profile) Gains() (kp, ki, kd float64) {
	return float64(p.P), float64(p.I), float64(p.D)
}
