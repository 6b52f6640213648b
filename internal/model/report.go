package model

import "time"

// Strategy names how a split was computed
type Strategy string

const (
	StrategyUniform    Strategy = "uniform"    // Random split over images
	StrategyStratified Strategy = "stratified" // Iterative stratification over annotations
)

// Report describes a completed split run.
// It is written next to the outputs when --report is given.
type Report struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`      // Input annotations path
	Fingerprint string    `json:"fingerprint"` // blake3 digest of the input bytes
	CreatedAt   time.Time `json:"created_at"`

	Strategy Strategy `json:"strategy"`
	Fraction float64  `json:"fraction"`
	Seed     int64    `json:"seed"`

	Input Partition `json:"input"`
	Train Partition `json:"train"`
	Test  Partition `json:"test"`

	DroppedImages int         `json:"dropped_images,omitempty"` // Removed by the having-annotations filter
	Pruned        PruneReport `json:"pruned"`
	EmptySubsets  []string    `json:"empty_subsets,omitempty"` // Sides stratification left without annotations

	Balance []CategoryBalance `json:"balance"`
	Stats   BalanceStats      `json:"stats"`

	Copies []CopySummary `json:"copies,omitempty"`
}

// Partition summarizes one side of a split
type Partition struct {
	Path        string `json:"path,omitempty"`
	Images      int    `json:"images"`
	Annotations int    `json:"annotations"`
}

// PruneReport lists categories removed before stratification because they
// had fewer than two annotations.
type PruneReport struct {
	Categories  []ID `json:"categories"`
	Annotations int  `json:"annotations"`
}

// Empty reports whether nothing was pruned
func (p PruneReport) Empty() bool {
	return len(p.Categories) == 0
}

// CategoryBalance is the realized train share of one category
type CategoryBalance struct {
	CategoryID ID      `json:"category_id"`
	Name       string  `json:"name,omitempty"`
	Train      int     `json:"train"`
	Test       int     `json:"test"`
	TrainShare float64 `json:"train_share"`
	Deviation  float64 `json:"deviation"` // TrainShare minus the requested fraction
}

// BalanceStats aggregates CategoryBalance deviations
type BalanceStats struct {
	MeanAbsDeviation float64 `json:"mean_abs_deviation"`
	MaxAbsDeviation  float64 `json:"max_abs_deviation"`
	StdDevShare      float64 `json:"stddev_share"`
}

// CopySummary counts image files copied for one subset
type CopySummary struct {
	Subset  string `json:"subset"`
	Dir     string `json:"dir"`
	Copied  int    `json:"copied"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}
