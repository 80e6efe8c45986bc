package sim

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"synkino/core"
	"synkino/profile"
	"synkino/track"
)

// Scenario describes one simulated screening.
type Scenario struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	Step     time.Duration `yaml:"step"`

	// Settle is the time after PLAYING starts before the sync error counts
	// towards the report's maximum.
	Settle time.Duration `yaml:"settle"`

	Track     int             `yaml:"track"`
	Profile   profile.Profile `yaml:"profile"`
	Projector ProjectorConfig `yaml:"projector"`
	Decoder   DecoderConfig   `yaml:"decoder"`
	Operator  OperatorConfig  `yaml:"operator"`
}

// ProjectorConfig sets the film transport.
type ProjectorConfig struct {
	FPS      uint8   `yaml:"fps"`
	SpeedPPM float64 `yaml:"speed_ppm"`

	// LeaderClearsAfter holds the start-mark sensor active from t=0 until
	// the given time. Zero means the film is threaded past the mark.
	LeaderClearsAfter time.Duration `yaml:"leader_clears_after"`

	Segments []Segment `yaml:"segments"`
}

// DecoderConfig sets the simulated decoder.
type DecoderConfig struct {
	SampleRate       uint16        `yaml:"sample_rate"`
	RatePPM          float64       `yaml:"rate_ppm"`
	PlaceholderReads int           `yaml:"placeholder_reads"`
	Length           time.Duration `yaml:"length"`
	Disconnected     bool          `yaml:"disconnected"`
}

// OperatorConfig scripts the user.
type OperatorConfig struct {
	DeclineManualStart bool          `yaml:"decline_manual_start"`
	AnswerAfter        time.Duration `yaml:"answer_after"`
	Edits              []Edit        `yaml:"edits"`
}

const maxStep = 10 * time.Millisecond

// ParseScenario decodes YAML, fills defaults and validates the result.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// DefaultScenario is a steady 24 fps screening of a 44.1 kHz track with a
// manual start.
func DefaultScenario() *Scenario {
	var sc Scenario
	sc.applyDefaults()
	return &sc
}

func (sc *Scenario) applyDefaults() {
	if sc.Name == "" {
		sc.Name = "default"
	}
	if sc.Duration == 0 {
		sc.Duration = 30 * time.Second
	}
	if sc.Step == 0 {
		sc.Step = time.Millisecond
	}
	if sc.Settle == 0 {
		sc.Settle = 5 * time.Second
	}
	if sc.Track == 0 {
		sc.Track = 1
	}
	if sc.Profile.Name == "" {
		sc.Profile = profile.Default()
	}
	sc.Profile.ApplyDefaults()
	if sc.Projector.FPS == 0 {
		sc.Projector.FPS = 24
	}
	if sc.Decoder.SampleRate == 0 {
		sc.Decoder.SampleRate = 44100
	}
}

// Validate checks ranges the engine accepts.
func (sc *Scenario) Validate() error {
	if sc.Step <= 0 || sc.Step > maxStep {
		return fmt.Errorf("scenario %q: step must be in (0, %v]", sc.Name, maxStep)
	}
	if sc.Duration < sc.Step {
		return fmt.Errorf("scenario %q: duration shorter than one step", sc.Name)
	}
	if sc.Projector.FPS < track.MinFPS || sc.Projector.FPS > track.MaxFPS {
		return fmt.Errorf("scenario %q: fps must be %d-%d", sc.Name, track.MinFPS, track.MaxFPS)
	}
	if sc.Projector.SpeedPPM <= -1e6 || sc.Decoder.RatePPM <= -1e6 {
		return fmt.Errorf("scenario %q: ppm error must be above -1000000", sc.Name)
	}
	if sc.Decoder.SampleRate <= core.PlaceholderSampleRate {
		return fmt.Errorf("scenario %q: sample rate %d too low", sc.Name, sc.Decoder.SampleRate)
	}
	for _, s := range sc.Projector.Segments {
		if s.Run < 0 || s.Stop < 0 {
			return errors.New("scenario: negative segment")
		}
	}
	if err := sc.Profile.Validate(); err != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return nil
}
