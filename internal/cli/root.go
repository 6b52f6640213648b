package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/cocosplit/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cocosplit",
	Short: "cocosplit - split COCO annotation files into train and test sets",
	Long: `cocosplit partitions a COCO annotations file into disjoint training and
test files while keeping every annotation next to the image it references.

Two strategies are available:
- uniform:    images are assigned at random by the requested fraction
- stratified: annotations are assigned so each category keeps roughly the
              requested fraction on both sides (--multi-class)

Categories with fewer than two annotations cannot be stratified; they are
pruned and listed in the run summary.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "cocosplit v0.2.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.cocosplit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.cocosplit")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// COCOSPLIT_SPLIT_FRACTION maps to split.fraction
	viper.SetEnvPrefix("COCOSPLIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// dashFlags accepts the underscore spellings of the original tool
// (--images_folder, --having_annotations).
func dashFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// loadConfig layers viper values (flags, env, config file) over the defaults
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if viper.IsSet("split.fraction") {
		cfg.Split.Fraction = viper.GetFloat64("split.fraction")
	}
	if viper.IsSet("split.having_annotations") {
		cfg.Split.HavingAnnotations = viper.GetBool("split.having_annotations")
	}
	if viper.IsSet("split.multi_class") {
		cfg.Split.MultiClass = viper.GetBool("split.multi_class")
	}
	if viper.IsSet("split.seed") {
		cfg.Split.Seed = viper.GetInt64("split.seed")
	}
	if viper.IsSet("output.mode") {
		cfg.Output.Mode = viper.GetString("output.mode")
	}
	if viper.IsSet("output.verbose") {
		cfg.Output.Verbose = viper.GetBool("output.verbose")
	}
	if viper.IsSet("copy.extensions") {
		cfg.Copy.Extensions = viper.GetStringSlice("copy.extensions")
	}
	if viper.IsSet("copy.output_dir") {
		cfg.Copy.OutputDir = viper.GetString("copy.output_dir")
	}
	if viper.IsSet("copy.rate_per_second") {
		cfg.Copy.RatePerSecond = viper.GetFloat64("copy.rate_per_second")
	}
	if viper.IsSet("copy.burst") {
		cfg.Copy.Burst = viper.GetInt("copy.burst")
	}
	if viper.IsSet("copy.verify") {
		cfg.Copy.Verify = viper.GetBool("copy.verify")
	}
	if viper.IsSet("concurrency.copy_workers") {
		cfg.Concurrency.CopyWorkers = viper.GetInt("concurrency.copy_workers")
	}
	if viper.IsSet("concurrency.batch_jobs") {
		cfg.Concurrency.BatchJobs = viper.GetInt("concurrency.batch_jobs")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.ttl") {
		cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	}

	return cfg
}
