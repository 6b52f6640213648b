package pipeline

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/cocosplit/internal/cache"
	"github.com/ppiankov/cocosplit/internal/coco"
	"github.com/ppiankov/cocosplit/internal/imagecopy"
	"github.com/ppiankov/cocosplit/internal/model"
	"github.com/ppiankov/cocosplit/internal/report"
	"github.com/ppiankov/cocosplit/internal/split"
)

// Pipeline orchestrates a complete split run
type Pipeline struct {
	sources  *cache.SourceReader
	copier   *imagecopy.Copier
	renderer *Renderer
	config   *model.Config
	log      io.Writer // progress output, shown when verbose
	now      func() time.Time
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}

	return &Pipeline{
		sources:  cache.NewSourceReader(c, coco.ReadFile),
		copier:   imagecopy.NewCopier(cfg.Copy, cfg.Concurrency.CopyWorkers),
		renderer: NewRenderer(os.Stdout),
		config:   cfg,
		log:      os.Stderr,
		now:      time.Now,
	}
}

// SetOutput redirects the summary and progress writers
func (p *Pipeline) SetOutput(summary, progress io.Writer) {
	p.renderer = NewRenderer(summary)
	p.log = progress
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.config.Output.Verbose {
		fmt.Fprintf(p.log, format, args...)
	}
}

// Run executes one split job: load, split, write both outputs, optionally
// copy images, and return a report describing the run.
func (p *Pipeline) Run(ctx context.Context, job model.Job) (*model.Report, error) {
	job = job.WithDefaults(p.config)

	// 1. Reject bad requests before touching the input
	if err := model.ValidateFraction(job.Fraction); err != nil {
		return nil, err
	}
	mode, err := coco.ParseMode(job.Mode)
	if err != nil {
		return nil, err
	}

	// 2. Load the document
	data, cached, err := p.sources.Read(job.Annotations)
	if err != nil {
		return nil, err
	}
	doc, err := coco.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Annotations, err)
	}
	p.logf("✓ Loaded %s (%d images, %d annotations, %d categories, cached: %v)\n",
		job.Annotations, len(doc.Images), len(doc.Annotations), len(doc.Categories), cached)

	// 3. Split
	seed := job.Seed
	if seed == 0 {
		seed = p.now().UnixNano()
	}
	opts := split.Options{
		Fraction:          job.Fraction,
		HavingAnnotations: job.FilterUnannotated(),
		MultiClass:        job.Stratify(),
	}
	res, err := split.Run(doc, opts, NewRand(seed))
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", job.Annotations, err)
	}
	for _, side := range res.EmptySubsets {
		p.logf("✗ Stratification left %s without annotations\n", side)
	}
	if !res.Pruned.Empty() {
		p.logf("✓ Pruned %d categories with fewer than %d annotations: %v\n",
			len(res.Pruned.Categories), split.MinSamplesPerCategory, res.Pruned.Categories)
	}

	// 4. Encode both sides, then write them together
	trainData, err := coco.Marshal(res.Train, mode)
	if err != nil {
		return nil, fmt.Errorf("encode train: %w", err)
	}
	testData, err := coco.Marshal(res.Test, mode)
	if err != nil {
		return nil, fmt.Errorf("encode test: %w", err)
	}
	err = coco.WriteFiles(
		coco.Output{Path: job.Train, Data: trainData},
		coco.Output{Path: job.Test, Data: testData},
	)
	if err != nil {
		return nil, err
	}
	p.logf("✓ Wrote %s and %s (%s mode)\n", job.Train, job.Test, mode)

	rep := p.buildReport(job, seed, data, doc, res)

	// 5. Copy images
	if job.ImagesFolder != "" {
		if err := p.copyImages(ctx, job, res, rep); err != nil {
			return rep, err
		}
	}

	// 6. Report
	if job.Report != "" {
		if err := p.renderer.RenderJSON(rep, job.Report); err != nil {
			return rep, fmt.Errorf("render report: %w", err)
		}
		p.logf("✓ Wrote report: %s\n", job.Report)
	}

	return rep, nil
}

func (p *Pipeline) copyImages(ctx context.Context, job model.Job, res *split.Result, rep *model.Report) error {
	subsets := []struct {
		name   string
		images []model.Image
	}{
		{"train", res.Train.Images},
		{"test", res.Test.Images},
	}

	for _, s := range subsets {
		p.logf("⚙️  Copying %s images...\n", s.name)
		summary, err := p.copier.CopySubset(ctx, job.ImagesFolder, job.ImagesOut, s.name, s.images)
		rep.Copies = append(rep.Copies, summary)
		if err != nil {
			return fmt.Errorf("copy %s images: %w", s.name, err)
		}
		p.logf("✓ Copied %d %s images to %s (%d skipped)\n", summary.Copied, s.name, summary.Dir, summary.Skipped)
	}
	return nil
}

func (p *Pipeline) buildReport(job model.Job, seed int64, data []byte, doc *model.Document, res *split.Result) *model.Report {
	balance, stats := report.Balance(res.Train, res.Test, job.Fraction)

	return &model.Report{
		RunID:       uuid.NewString(),
		Source:      job.Annotations,
		Fingerprint: cache.Fingerprint(data),
		CreatedAt:   p.now().UTC(),
		Strategy:    res.Strategy,
		Fraction:    job.Fraction,
		Seed:        seed,
		Input: model.Partition{
			Path:        job.Annotations,
			Images:      len(doc.Images),
			Annotations: len(doc.Annotations),
		},
		Train: model.Partition{
			Path:        job.Train,
			Images:      len(res.Train.Images),
			Annotations: len(res.Train.Annotations),
		},
		Test: model.Partition{
			Path:        job.Test,
			Images:      len(res.Test.Images),
			Annotations: len(res.Test.Annotations),
		},
		DroppedImages: res.DroppedImages,
		Pruned:        res.Pruned,
		EmptySubsets:  res.EmptySubsets,
		Balance:       balance,
		Stats:         stats,
	}
}

// NewRand returns the generator used for a seed, so a recorded seed
// reproduces a split.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x5851f42d4c957f2d))
}

// RenderSummary prints the one-line summary of a run
func (p *Pipeline) RenderSummary(rep *model.Report) {
	p.renderer.RenderSummary(rep)
}
