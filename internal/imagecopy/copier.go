// Package imagecopy copies the image files of a split into per-subset
// folders.
package imagecopy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/cocosplit/internal/model"
	"github.com/ppiankov/cocosplit/internal/worker"
	"github.com/zeebo/blake3"
)

// ErrDigestMismatch is returned when a verified copy differs from its source
var ErrDigestMismatch = errors.New("copy digest mismatch")

// Copier copies image files through a worker pool
type Copier struct {
	workers    int
	limiter    *worker.Limiter
	extensions map[string]bool
	verify     bool
}

// NewCopier creates a copier from the copy settings
func NewCopier(cfg model.CopyConfig, workers int) *Copier {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}

	return &Copier{
		workers:    workers,
		limiter:    worker.NewLimiter(cfg.RatePerSecond, cfg.Burst),
		extensions: exts,
		verify:     cfg.Verify,
	}
}

// Allowed reports whether a file name has a copyable extension. An empty
// extension list allows every file.
func (c *Copier) Allowed(fileName string) bool {
	if len(c.extensions) == 0 {
		return true
	}
	return c.extensions[strings.ToLower(filepath.Ext(fileName))]
}

// SubsetDir returns the folder a subset's images are copied into:
// <outDir>/<base name of srcDir>_<subset>
func SubsetDir(srcDir, outDir, subset string) string {
	name := filepath.Base(filepath.Clean(srcDir))
	return filepath.Join(outDir, name+"_"+subset)
}

// CopySubset copies the files of images from srcDir into the subset folder.
// Every file is attempted; failures are counted and returned joined.
func (c *Copier) CopySubset(ctx context.Context, srcDir, outDir, subset string, images []model.Image) (model.CopySummary, error) {
	dst := SubsetDir(srcDir, outDir, subset)
	summary := model.CopySummary{Subset: subset, Dir: dst}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return summary, fmt.Errorf("create %s: %w", dst, err)
	}

	var jobs []worker.Job
	for _, img := range images {
		if img.FileName == "" || !c.Allowed(img.FileName) {
			summary.Skipped++
			continue
		}
		jobs = append(jobs, &copyJob{
			src:     filepath.Join(srcDir, img.FileName),
			dst:     filepath.Join(dst, filepath.Base(img.FileName)),
			key:     dst,
			limiter: c.limiter,
			verify:  c.verify,
		})
	}

	pool := worker.NewPool(ctx, c.workers)
	var errs []error
	results := pool.Run(jobs)
	for _, r := range results {
		if err := r.GetError(); err != nil {
			summary.Failed++
			errs = append(errs, err)
			continue
		}
		summary.Copied++
	}

	// Jobs dropped by cancellation never produced a result
	if missing := len(jobs) - len(results); missing > 0 {
		summary.Failed += missing
		errs = append(errs, fmt.Errorf("%d copies not attempted: %w", missing, context.Cause(ctx)))
	}

	return summary, errors.Join(errs...)
}

type copyJob struct {
	src     string
	dst     string
	key     string
	limiter *worker.Limiter
	verify  bool
}

type copyResult struct {
	path string
	err  error
}

func (r *copyResult) GetError() error {
	return r.err
}

func (j *copyJob) Execute(ctx context.Context) worker.Result {
	if err := j.limiter.Wait(ctx, j.key); err != nil {
		return &copyResult{path: j.src, err: fmt.Errorf("copy %s: %w", j.src, err)}
	}
	return &copyResult{path: j.src, err: copyFile(j.src, j.dst, j.verify)}
}

func copyFile(src, dst string, verify bool) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("copy %s: %w", src, closeErr)
		}
	}()

	var r io.Reader = in
	var srcHash *blake3.Hasher
	if verify {
		srcHash = blake3.New()
		r = io.TeeReader(in, srcHash)
	}

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if !verify {
		return nil
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	got, err := digestFile(dst)
	if err != nil {
		return fmt.Errorf("verify %s: %w", dst, err)
	}
	if want := srcHash.Sum(nil); string(got) != string(want) {
		return fmt.Errorf("verify %s: %w", dst, ErrDigestMismatch)
	}
	return nil
}

func digestFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
