package config

import "time"

// Config represents the top-level YAML configuration file.
type Config struct {
	Include []string     `mapstructure:"include" yaml:"include,omitempty"`
	Backup  BackupConfig `mapstructure:"backup"  yaml:"backup"`

	// Jobs is decoded separately by the loader so unknown keys in a job
	// entry fail loudly instead of being dropped.
	Jobs []JobConfig `mapstructure:"-" yaml:"jobs"`
}

// BackupConfig contains the engine-wide backup options. It is passed by
// value into every strategy operation and never mutated by them.
type BackupConfig struct {
	Enabled     bool          `mapstructure:"enabled"     yaml:"enabled"`
	Destination string        `mapstructure:"destination" yaml:"destination"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout,omitempty"`

	Compression  CompressionConfig  `mapstructure:"compression"  yaml:"compression"`
	Encryption   EncryptionConfig   `mapstructure:"encryption"   yaml:"encryption"`
	Verification VerificationConfig `mapstructure:"verification" yaml:"verification"`
}

// CompressionConfig selects per-snapshot stream compression. It applies
// uniformly to every file of a snapshot; there is no per-file override.
type CompressionConfig struct {
	Enabled   bool   `mapstructure:"enabled"   yaml:"enabled"`
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm,omitempty"`
	Level     int    `mapstructure:"level"     yaml:"level,omitempty"`
}

// EncryptionConfig declares encryption intent. No strategy exercises it;
// the fields exist so a config written for a future version still parses.
type EncryptionConfig struct {
	Enabled   bool   `mapstructure:"enabled"   yaml:"enabled"`
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm,omitempty"`
	KeyID     string `mapstructure:"key_id"    yaml:"key_id,omitempty"`
}

// VerificationConfig controls the post-backup metadata checksum check.
// TestRestore is recognized but not executed by this engine.
type VerificationConfig struct {
	Enabled           bool   `mapstructure:"enabled"            yaml:"enabled"`
	ChecksumAlgorithm string `mapstructure:"checksum_algorithm" yaml:"checksum_algorithm,omitempty"`
	TestRestore       bool   `mapstructure:"test_restore"       yaml:"test_restore,omitempty"`
}

// JobConfig is a named, repeatable backup definition producing a chain of
// snapshots sharing its name.
type JobConfig struct {
	Name    string   `mapstructure:"name"    yaml:"name"`
	Type    string   `mapstructure:"type"    yaml:"type"`
	Sources []string `mapstructure:"sources" yaml:"sources"`

	// Strategy optionally pins "file" or "directory" for full backups.
	// When empty the manager infers it from the shape of the sources.
	Strategy string `mapstructure:"strategy" yaml:"strategy,omitempty"`

	// Destination overrides the global backup destination for this job.
	Destination string `mapstructure:"destination" yaml:"destination,omitempty"`

	Include []string `mapstructure:"include" yaml:"include,omitempty"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`

	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}
