package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/ppiankov/cocosplit/internal/model"
	"github.com/ppiankov/cocosplit/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	imagesFolder string
	reportPath   string
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <annotations> <train> <test>",
	Short: "Split a COCO annotations file into train and test files",
	Long: `Split reads a COCO annotations file and writes two files:
- train: the requested fraction of images (or annotations with --multi-class)
- test:  everything else

Every annotation is written next to the image it references. Categories are
copied unchanged to both files. Output paths ending in .xz are compressed.

Example:
  cocosplit split instances.json train.json test.json -s 0.8
  cocosplit split instances.json train.json test.json -s 0.8 --having-annotations
  cocosplit split instances.json train.json test.json -s 0.9 --multi-class --seed 42
  cocosplit split instances.json.xz train.json test.json --images-folder ./images`,
	Args: cobra.ExactArgs(3),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	flags := splitCmd.Flags()
	flags.SetNormalizeFunc(dashFlags)

	// Split flags
	flags.Float64P("split", "s", 0.8, "fraction of the data assigned to train; a number in (0, 1)")
	flags.Bool("having-annotations", false, "ignore images without annotations")
	flags.Bool("multi-class", false, "stratify annotations by category instead of splitting images")
	flags.Int64("seed", 0, "random seed (0 picks one from the clock; the seed used is reported)")

	// Output flags
	flags.String("mode", "compatible", "output layout: compatible (sorted keys) or lossless (input order)")
	flags.StringVar(&reportPath, "report", "", "write a JSON run report to this path")

	// Image copy flags
	flags.StringVar(&imagesFolder, "images-folder", "", "copy the images of each subset from this folder")
	flags.String("images-out", ".", "parent directory for <folder>_train and <folder>_test")
	flags.StringSlice("extensions", []string{".jpg"}, "image file extensions to copy")
	flags.Float64("copy-rate", 0, "max image copies per second per subset (0 = unlimited)")
	flags.Bool("verify-copies", false, "compare blake3 digests of copied images")
	flags.Int("copy-workers", runtime.NumCPU(), "number of concurrent image copies")

	// Cache flags
	flags.Bool("no-cache", false, "disable the in-memory source cache")

	bind := map[string]string{
		"split.fraction":           "split",
		"split.having_annotations": "having-annotations",
		"split.multi_class":        "multi-class",
		"split.seed":               "seed",
		"output.mode":              "mode",
		"copy.output_dir":          "images-out",
		"copy.extensions":          "extensions",
		"copy.rate_per_second":     "copy-rate",
		"copy.verify":              "verify-copies",
		"concurrency.copy_workers": "copy-workers",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	// Fail before reading anything
	if err := model.ValidateFraction(cfg.Split.Fraction); err != nil {
		return err
	}

	job := model.Job{
		Annotations:  args[0],
		Train:        args[1],
		Test:         args[2],
		ImagesFolder: imagesFolder,
		Report:       reportPath,
	}.WithDefaults(cfg)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Splitting: %s\n", job.Annotations)
		fmt.Fprintf(os.Stderr, "Strategy:  %s\n", strategyName(job.Stratify()))
		fmt.Fprintf(os.Stderr, "Fraction:  %v\n", job.Fraction)
		fmt.Fprintf(os.Stderr, "Mode:      %s\n", job.Mode)
		fmt.Fprintln(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.NewPipeline(cfg)
	p.SetOutput(cmd.OutOrStdout(), os.Stderr)

	report, err := p.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	p.RenderSummary(report)
	return nil
}

func strategyName(multiClass bool) model.Strategy {
	if multiClass {
		return model.StrategyStratified
	}
	return model.StrategyUniform
}
