package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Profile describes one stress run.
type Profile struct {
	Workers     int `yaml:"workers"`
	Iterations  int `yaml:"iterations"`
	Payload     int `yaml:"payload"`
	SliceMax    int `yaml:"slice_max"`
	MutateEvery int `yaml:"mutate_every"`
}

// DefaultProfile returns the profile used when no config file is given.
func DefaultProfile() Profile {
	return Profile{
		Workers:     8,
		Iterations:  10000,
		Payload:     4096,
		SliceMax:    64,
		MutateEvery: 7,
	}
}

// Validate checks that the profile describes a runnable workload.
func (p Profile) Validate() error {
	var errs []error
	if p.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", p.Workers))
	}
	if p.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", p.Iterations))
	}
	if p.Payload < 1 {
		errs = append(errs, fmt.Errorf("payload must be positive, got %d", p.Payload))
	}
	if p.SliceMax < 1 || p.SliceMax > p.Payload {
		errs = append(errs, fmt.Errorf("slice_max must be in [1, payload], got %d", p.SliceMax))
	}
	if p.MutateEvery < 0 {
		errs = append(errs, fmt.Errorf("mutate_every must not be negative, got %d", p.MutateEvery))
	}
	return errors.Join(errs...)
}

// LoadProfile reads a YAML profile. Fields missing from the file keep their
// default values.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, fmt.Errorf("profile %s not found", path)
		}
		return p, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}
