// Package config loads training configuration from YAML files.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/tinycnn/internal/model"
	"github.com/born-ml/tinycnn/internal/train"
)

// Config is the complete set of training parameters.
//
// Example file:
//
//	epochs: 3
//	learning_rate: 0.005
//	filter_count: 8
//	filter_size: 3
//	pool_size: 2
type Config struct {
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	FilterCount  int     `yaml:"filter_count"`
	FilterSize   int     `yaml:"filter_size"`
	PoolSize     int     `yaml:"pool_size"`
	NumClasses   int     `yaml:"num_classes"`
	Seed         int64   `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`
	ProbEpsilon  float64 `yaml:"prob_epsilon"`
	Shuffle      bool    `yaml:"shuffle"`
	Parallel     bool    `yaml:"parallel"`
}

// Default returns the built-in configuration.
func Default() Config {
	m := model.DefaultConfig()
	return Config{
		Epochs:       3,
		LearningRate: 0.005,
		FilterCount:  m.FilterCount,
		FilterSize:   m.FilterSize,
		PoolSize:     m.PoolSize,
		NumClasses:   m.NumClasses,
		Seed:         m.Seed,
		LogEvery:     100,
		Shuffle:      true,
		Parallel:     true,
	}
}

// Load reads a YAML file on top of Default. Keys absent from the file keep
// their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of Default and validates the result.
func Parse(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(err, "decode yaml")
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the training and model parameters.
func (c Config) Validate() error {
	if err := c.Model().Validate(); err != nil {
		return err
	}
	return c.Train().Validate()
}

// Model returns the network part of the configuration.
func (c Config) Model() model.Config {
	return model.Config{
		NumClasses:  c.NumClasses,
		FilterCount: c.FilterCount,
		FilterSize:  c.FilterSize,
		PoolSize:    c.PoolSize,
		Seed:        c.Seed,
		ProbEpsilon: c.ProbEpsilon,
		Parallel:    c.Parallel,
	}
}

// Train returns the training-loop part of the configuration.
func (c Config) Train() train.Options {
	return train.Options{
		Epochs:       c.Epochs,
		LearningRate: c.LearningRate,
		LogEvery:     c.LogEvery,
		Shuffle:      c.Shuffle,
		Seed:         c.Seed,
	}
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
