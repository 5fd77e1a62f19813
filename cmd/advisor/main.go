package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"roi_advisor/pkg/core/logging"
	"roi_advisor/pkg/core/roi"
)

type options struct {
	verbose    bool
	file       string
	investment float64
	benefit    float64
	years      int
	rate       float64
	context    string
	swing      float64
	jsonOut    bool
	provider   string
	modelsFile string
	resources  string
	cacheDir   string
	sensitive  bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "advisor",
		Short: "AI investment ROI calculator and advisor",
		Long: `advisor computes Simple ROI, payback period, NPV and IRR for an AI
investment scenario, projects the yearly cash flows, ranks sensitivity drivers,
and can ask a text-generation provider for an executive narrative.

Scenario inputs come from flags, a JSON/Hjson file (--file), or both (flags win).
Without inputs the consulting preset is used: $330,000 investment, $234,375 a year,
3 years, 8% discount rate.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			logger, err := logging.New(os.Getenv("LOG_LEVEL"), opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVarP(&opts.file, "file", "f", "", "Scenario file (JSON or Hjson)")
	pf.Float64Var(&opts.investment, "investment", 0, "Initial investment")
	pf.Float64Var(&opts.benefit, "benefit", 0, "Annual net benefit")
	pf.IntVar(&opts.years, "years", 0, "Number of benefit years")
	pf.Float64Var(&opts.rate, "rate", 0, "Discount rate in percent (8 = 8%)")
	pf.BoolVar(&opts.jsonOut, "json", false, "Print JSON instead of tables")
	pf.Float64Var(&opts.swing, "swing", roi.DefaultSwingPct, "Sensitivity swing in percent")

	calcCmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute ROI metrics and the cash-flow projection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, opts)
		},
	}

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Rank assumptions by how strongly they move NPV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSensitivity(cmd, opts)
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute metrics and generate an executive narrative",
		Long: `Computes the scenario and sends the figures plus optional business context
to the active text-generation provider (config/models.yaml). Provider keys come from
GEMINI_API_KEY (or API_KEY), DEEPSEEK_API_KEY and DASHSCOPE_API_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}
	af := analyzeCmd.Flags()
	af.StringVar(&opts.context, "context", "", "Business context for the narrative")
	af.StringVar(&opts.provider, "provider", "", "Provider override (gemini, gemini-legacy, deepseek, qwen)")
	af.StringVar(&opts.modelsFile, "models", "config/models.yaml", "Provider configuration file")
	af.StringVar(&opts.resources, "resources", "resources", "Prompt library directory")
	af.StringVar(&opts.cacheDir, "cache-dir", "", "Cache narratives in this directory")
	af.BoolVar(&opts.sensitive, "with-sensitivity", false, "Include sensitivity drivers in the prompt")

	rootCmd.AddCommand(calcCmd, sensitivityCmd, analyzeCmd)
	return rootCmd
}

func main() {
	// cobra has already reported the error unless the command silenced it.
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
