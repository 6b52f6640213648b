package model

import (
	"runtime"
	"time"
)

// Config holds all settings for a split run
type Config struct {
	Split       SplitConfig       `yaml:"split"`
	Output      OutputConfig      `yaml:"output"`
	Copy        CopyConfig        `yaml:"copy"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Cache       CacheConfig       `yaml:"cache"`
}

// SplitConfig controls how the corpus is partitioned
type SplitConfig struct {
	Fraction          float64 `yaml:"fraction"`           // Share of images (or annotations) assigned to train
	HavingAnnotations bool    `yaml:"having_annotations"` // Drop images without annotations before splitting
	MultiClass        bool    `yaml:"multi_class"`        // Stratify annotations by category
	Seed              int64   `yaml:"seed"`               // 0 picks a time-based seed
}

// OutputConfig controls serialization of the train/test documents
type OutputConfig struct {
	Mode    string `yaml:"mode"`    // "compatible" or "lossless"
	Verbose bool   `yaml:"verbose"`
}

// CopyConfig controls copying image files into per-subset folders
type CopyConfig struct {
	Extensions    []string `yaml:"extensions"`      // Only files with these extensions are copied
	OutputDir     string   `yaml:"output_dir"`      // Parent of <folder>_train and <folder>_test
	RatePerSecond float64  `yaml:"rate_per_second"` // 0 means unlimited
	Burst         int      `yaml:"burst"`
	Verify        bool     `yaml:"verify"` // Compare blake3 digests after each copy
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	CopyWorkers int `yaml:"copy_workers"`
	BatchJobs   int `yaml:"batch_jobs"`
}

// CacheConfig controls the source cache used by batch runs
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Split: SplitConfig{
			Fraction: 0.8,
		},
		Output: OutputConfig{
			Mode: "compatible",
		},
		Copy: CopyConfig{
			Extensions: []string{".jpg"},
			OutputDir:  ".",
			Burst:      1,
		},
		Concurrency: ConcurrencyConfig{
			CopyWorkers: runtime.NumCPU(),
			BatchJobs:   2,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
	}
}
