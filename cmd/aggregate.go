package cmd

import (
	"time"

	"forgecat/pkg/forge"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Write the files listed in input.txt into output.txt",
	Long: `Write the current content of every listed file, followed by its content at
git HEAD when the file is tracked, into output.txt. Lines of input.txt starting
with "@forge " are resolved against the working root instead of the project root.`,
	RunE: runAggregate,
}

func init() {
	RootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	startTime := time.Now()
	log := logger().With(zap.String("runID", uuid.NewString()))
	log.Info("Starting file processing...")
	defer func() {
		log.Info("File processing completed.", zap.Duration("elapsed", time.Since(startTime)))
	}()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	aggregator, err := forge.NewAggregator(cfg, log)
	if err != nil {
		return err
	}
	return aggregator.Run(cmd.Context())
}
