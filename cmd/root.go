package cmd

import (
	"context"
	"fmt"
	"time"

	"forgecat/pkg/config"
	"forgecat/pkg/logging"
	"forgecat/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile     string
	debug       bool
	projectRoot string
	workingRoot string
	autoScan    bool
	batchSize   int
	gitTimeout  time.Duration

	// runConfig is loaded from the environment before any command runs.
	runConfig *config.Config

	// setupLogging initializes logging.Logger.
	setupLogging = logging.Setup
)

// RootCmd is the base command. Without a subcommand it runs aggregate.
var RootCmd = &cobra.Command{
	Use:   "forgecat",
	Short: "forgecat concatenates files and their last committed version into one report",
	Long: `forgecat reads the paths listed in input.txt (or every file of the working
directory with AUTO_CHECK=true), renders each file together with its content at
git HEAD, and writes the result to output.txt. The anonymize command rewrites
that report with the keywords from keywords.json.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runAggregate,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "Env file loaded before reading the environment")
	flags.BoolVar(&debug, "debug", false, "Enable development logging (env "+config.EnvDebug+")")
	flags.StringVar(&projectRoot, "project-root", "", "Git project root (env "+config.EnvProjectRoot+")")
	flags.StringVar(&workingRoot, "working-root", "", "Directory holding input/output files (env "+config.EnvWorkingRoot+")")
	flags.BoolVar(&autoScan, "auto-scan", false, "Scan the working root instead of reading input.txt (env "+config.EnvAutoScan+")")
	flags.IntVar(&batchSize, "batch-size", config.DefaultBatchSize, "Number of paths processed concurrently (env "+config.EnvBatchSize+")")
	flags.DurationVar(&gitTimeout, "git-timeout", config.DefaultGitTimeout, "Timeout of each git invocation (env "+config.EnvGitTimeout+")")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// setup loads the environment and initializes logging.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	runConfig = cfg

	if err := setupLogging(debug || cfg.Debug, version.AppName, version.Get().Version); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig applies the command line flags over the environment. Each
// command validates the parts of the result it needs.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := runConfig
	if cfg == nil {
		var err error
		if cfg, err = config.Load(envFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("project-root") {
		cfg.ProjectRoot = projectRoot
	}
	if flags.Changed("working-root") {
		cfg.WorkingRoot = workingRoot
	}
	if flags.Changed("auto-scan") {
		cfg.AutoScan = autoScan
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = batchSize
	}
	if flags.Changed("git-timeout") {
		cfg.GitTimeout = gitTimeout
	}
	return cfg, nil
}

func logger() *zap.Logger {
	return logging.OrNop(logging.Logger)
}
