//go:build !tinygo

package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed profiles.toml
var defaultProfiles []byte

// File is the TOML layout of the profile store.
type File struct {
	Default   string    `toml:"default"`
	Projector []Profile `toml:"projector"`
}

// DefaultPath returns the per-user profile file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(dir, "synkino", "profiles.toml"), nil
}

// Parse decodes and validates a profile file.
func Parse(data []byte) (*File, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads path, creating it from the built-in profiles if missing.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(path, defaultProfiles, 0644); err != nil {
			return nil, fmt.Errorf("failed to create default profiles at %s: %w", path, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Builtin returns the embedded profiles.
func Builtin() *File {
	f, err := Parse(defaultProfiles)
	if err != nil {
		panic("embedded profiles invalid: " + err.Error())
	}
	return f
}

// Save writes the file atomically.
func (f *File) Save(path string) error {
	if err := f.validate(); err != nil {
		return err
	}
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(out).Encode(f); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Find returns the profile called name, or the default one if name is empty.
func (f *File) Find(name string) (Profile, error) {
	if name == "" {
		name = f.Default
	}
	for _, p := range f.Projector {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("profile %q not found", name)
}

func (f *File) validate() error {
	if len(f.Projector) == 0 {
		return errors.New("no projector profiles defined")
	}
	if len(f.Projector) > MaxProfiles {
		return fmt.Errorf("at most %d profiles are supported", MaxProfiles)
	}
	seen := make(map[string]bool)
	for i := range f.Projector {
		p := &f.Projector[i]
		p.ApplyDefaults()
		if err := p.Validate(); err != nil {
			return fmt.Errorf("projector %d (%q): %w", i+1, p.Name, err)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
	}
	if f.Default == "" {
		f.Default = f.Projector[0].Name
	}
	if _, err := f.Find(f.Default); err != nil {
		return fmt.Errorf("default %w", err)
	}
	return nil
}
