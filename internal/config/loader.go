package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// Load reads the configuration from the given YAML file using Viper,
// merges any included files, and unmarshals into the Config struct.
func (c *Config) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Read base configuration
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read base config %s: %v", ErrLoadConfig, path, err)
	}

	// Merge include files (if any)
	for _, inc := range v.GetStringSlice("include") {
		data, err := os.ReadFile(inc)
		if err != nil {
			return fmt.Errorf("%w: read include %s: %v", ErrLoadConfig, inc, err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("%w: merge include %s: %v", ErrLoadConfig, inc, err)
		}
	}

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("%w: unmarshal config: %v", ErrLoadConfig, err)
	}

	jobs, err := decodeJobs(v.Get("jobs"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	c.Jobs = jobs

	return c.validate()
}

// decodeJobs decodes the raw jobs list with mapstructure so unknown keys
// are rejected. A job without an explicit "enabled" key defaults to enabled.
func decodeJobs(raw any) ([]JobConfig, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("jobs: expected a list, got %T", raw)
	}

	jobs := make([]JobConfig, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("jobs[%d]: expected a mapping, got %T", i, entry)
		}

		job := JobConfig{Enabled: true}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &job,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, fmt.Errorf("jobs[%d]: %v", i, err)
		}
		if err := dec.Decode(m); err != nil {
			return nil, fmt.Errorf("jobs[%d]: %v", i, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Jobs))
	for i, job := range c.Jobs {
		if job.Name == "" {
			return fmt.Errorf("%w: jobs[%d]: name is required", ErrValidateConfig, i)
		}
		if _, dup := seen[job.Name]; dup {
			return fmt.Errorf("%w: duplicate job name %q", ErrValidateConfig, job.Name)
		}
		seen[job.Name] = struct{}{}
		if len(job.Sources) == 0 {
			return fmt.Errorf("%w: job %q: at least one source is required", ErrValidateConfig, job.Name)
		}
		switch job.Type {
		case "", "full", "incremental", "differential":
		default:
			return fmt.Errorf("%w: job %q: unknown type %q", ErrValidateConfig, job.Name, job.Type)
		}
	}
	return nil
}

// Job returns the job definition with the given name.
func (c *Config) Job(name string) (JobConfig, bool) {
	for _, job := range c.Jobs {
		if job.Name == name {
			return job, true
		}
	}
	return JobConfig{}, false
}
