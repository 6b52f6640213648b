package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/cocosplit/internal/pipeline"
	"github.com/ppiankov/cocosplit/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Run several splits from a YAML manifest in parallel",
	Long: `Batch runs every job listed in a YAML manifest concurrently.

Jobs inherit unset fields from the manifest's defaults block, then from the
configuration. Relative paths resolve against the manifest's directory.

Manifest:
  defaults:
    fraction: 0.8
    having_annotations: true
  jobs:
    - name: coco-val
      annotations: val.json
      train: out/val_train.json
      test: out/val_test.json
    - annotations: extra.json.xz
      train: out/extra_train.json
      test: out/extra_test.json
      multi_class: true
      seed: 42

Example:
  cocosplit batch jobs.yaml
  cocosplit batch jobs.yaml --concurrency 4 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of jobs run at once (default: concurrency.batch_jobs)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0, "total timeout for the batch (0 = none)")
	batchCmd.Flags().Bool("no-cache", false, "disable the in-memory source cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg := loadConfig()
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if concurrency > 0 {
		cfg.Concurrency.BatchJobs = concurrency
	}
	if cfg.Concurrency.BatchJobs <= 0 {
		cfg.Concurrency.BatchJobs = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, batchTimeout)
		defer cancel()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  cocosplit Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Manifest:     %s\n", file)
	fmt.Fprintf(os.Stderr, "  Jobs at once: %d\n", cfg.Concurrency.BatchJobs)
	if batchTimeout > 0 {
		fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	}
	fmt.Fprintf(os.Stderr, "\n")

	// Per-job summaries would interleave, so the batch prints its own lines
	p := pipeline.NewPipeline(cfg)
	p.SetOutput(io.Discard, os.Stderr)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.BatchJobs)

	fmt.Fprintf(os.Stderr, "⚙️  Running jobs...\n\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process manifest: %w", err)
	}

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Job.Label(), result.Error)
			continue
		}

		successCount++
		rep := result.Report
		fmt.Fprintf(os.Stderr, "✓ %s (%s, train %d / test %d images, seed %d)\n",
			result.Job.Label(), rep.Strategy, rep.Train.Images, rep.Test.Images, rep.Seed)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d jobs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d jobs failed", failureCount, len(results))
	}
	return nil
}
