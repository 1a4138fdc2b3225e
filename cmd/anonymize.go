package cmd

import (
	"forgecat/pkg/anonymize"

	"github.com/spf13/cobra"
)

var keywordsFile string

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize",
	Short: "Replace keywords in output.txt and write output-anonymous.txt",
	Long: `Replace every whole word occurrence of the keywords in keywords.json (or the
file given with --keywords, JSON or YAML) and write the result to
output-anonymous.txt. output.txt is left untouched.`,
	RunE: runAnonymize,
}

func init() {
	anonymizeCmd.Flags().StringVar(&keywordsFile, "keywords", "", "Keyword file (default <working-root>/keywords.json)")
	RootCmd.AddCommand(anonymizeCmd)
}

func runAnonymize(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateWorkingRoot(); err != nil {
		return err
	}

	path := keywordsFile
	if path == "" {
		path = cfg.KeywordsFile()
	}

	keywords := anonymize.LoadKeywords(path, logger())
	return anonymize.Run(cfg.OutputFile(), cfg.AnonymousOutputFile(), keywords, logger())
}
