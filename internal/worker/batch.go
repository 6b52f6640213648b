package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/cocosplit/internal/model"
	"gopkg.in/yaml.v3"
)

// Splitter runs a single split job
type Splitter interface {
	Run(ctx context.Context, job model.Job) (*model.Report, error)
}

// SplitJob adapts a model.Job to the pool
type SplitJob struct {
	Index    int
	Job      model.Job
	Splitter Splitter
}

// Execute executes the split job
func (j *SplitJob) Execute(ctx context.Context) Result {
	report, err := j.Splitter.Run(ctx, j.Job)
	return &SplitResult{
		Index:  j.Index,
		Job:    j.Job,
		Report: report,
		Error:  err,
	}
}

// SplitResult represents the result of a split job
type SplitResult struct {
	Index  int
	Job    model.Job
	Report *model.Report
	Error  error
}

// GetError returns the error from the split result
func (r *SplitResult) GetError() error {
	return r.Error
}

// BatchProcessor runs several split jobs concurrently
type BatchProcessor struct {
	splitter    Splitter
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(splitter Splitter, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		splitter:    splitter,
		concurrency: concurrency,
	}
}

// ProcessJobs runs jobs and returns one result per job in manifest order.
// Jobs that never ran because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessJobs(ctx context.Context, jobs []model.Job) []*SplitResult {
	if len(jobs) == 0 {
		return []*SplitResult{}
	}

	pool := NewPool(ctx, b.concurrency)

	poolJobs := make([]Job, len(jobs))
	for i, job := range jobs {
		poolJobs[i] = &SplitJob{Index: i, Job: job, Splitter: b.splitter}
	}

	ordered := make([]*SplitResult, len(jobs))
	for _, result := range pool.Run(poolJobs) {
		r := result.(*SplitResult)
		ordered[r.Index] = r
	}

	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = errors.New("job did not run")
			}
			ordered[i] = &SplitResult{Index: i, Job: jobs[i], Error: err}
		}
	}
	return ordered
}

// ProcessFile reads a manifest and runs its jobs
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*SplitResult, error) {
	jobs, err := ReadManifest(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return b.ProcessJobs(ctx, jobs), nil
}

// Manifest is the YAML layout of a batch file
type Manifest struct {
	Defaults model.Job   `yaml:"defaults"`
	Jobs     []model.Job `yaml:"jobs"`
}

// ReadManifest reads jobs from a YAML manifest. Relative paths resolve
// against the manifest's directory and unset job fields inherit from the
// defaults block.
func ReadManifest(path string) ([]model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no jobs", path)
	}

	base := filepath.Dir(path)
	jobs := make([]model.Job, 0, len(m.Jobs))
	for i, job := range m.Jobs {
		job = inherit(job, m.Defaults)
		if job.Annotations == "" || job.Train == "" || job.Test == "" {
			return nil, fmt.Errorf("job %d: annotations, train and test are required", i+1)
		}

		job.Annotations = resolve(base, job.Annotations)
		job.Train = resolve(base, job.Train)
		job.Test = resolve(base, job.Test)
		job.ImagesFolder = resolve(base, job.ImagesFolder)
		job.ImagesOut = resolve(base, job.ImagesOut)
		job.Report = resolve(base, job.Report)
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func inherit(job, defaults model.Job) model.Job {
	if job.Fraction == 0 {
		job.Fraction = defaults.Fraction
	}
	if job.Seed == 0 {
		job.Seed = defaults.Seed
	}
	if job.Mode == "" {
		job.Mode = defaults.Mode
	}
	if job.ImagesFolder == "" {
		job.ImagesFolder = defaults.ImagesFolder
	}
	if job.ImagesOut == "" {
		job.ImagesOut = defaults.ImagesOut
	}
	if job.HavingAnnotations == nil {
		job.HavingAnnotations = defaults.HavingAnnotations
	}
	if job.MultiClass == nil {
		job.MultiClass = defaults.MultiClass
	}
	return job
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
