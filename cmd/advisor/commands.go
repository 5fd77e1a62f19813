package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"roi_advisor/pkg/core/agent"
	"roi_advisor/pkg/core/narrative"
	"roi_advisor/pkg/core/prompt"
	"roi_advisor/pkg/core/roi"
	"roi_advisor/pkg/core/store"
	"roi_advisor/pkg/core/utils"
)

// resolveScenario starts from the preset, applies --file, then explicitly set flags.
func resolveScenario(cmd *cobra.Command, opts *options) (roi.Scenario, error) {
	s := roi.DefaultScenario()

	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return s, fmt.Errorf("read scenario: %w", err)
		}
		strategy, err := utils.DecodeLenient(data, &s)
		if err != nil {
			return s, fmt.Errorf("parse %s: %w", opts.file, err)
		}
		opts.logger.Debug("scenario file decoded", zap.String("file", opts.file), zap.String("strategy", strategy))
	}

	flags := cmd.Flags()
	if flags.Changed("investment") {
		s.InitialInvestment = opts.investment
	}
	if flags.Changed("benefit") {
		s.AnnualBenefit = opts.benefit
	}
	if flags.Changed("years") {
		s.Years = opts.years
	}
	if flags.Changed("rate") {
		s.DiscountRate = opts.rate
	}
	return s, s.Validate()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCalc(cmd *cobra.Command, opts *options) error {
	s, err := resolveScenario(cmd, opts)
	if err != nil {
		return err
	}
	res, flows, err := roi.Compute(s)
	if err != nil {
		return err
	}
	opts.logger.Debug("scenario computed", zap.Float64("npv", res.NPV), zap.Bool("irr_defined", res.IRR.Defined))

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		if flows == nil {
			flows = []roi.CashFlowPoint{}
		}
		return writeJSON(out, map[string]interface{}{"scenario": s, "results": res, "cash_flows": flows})
	}
	printScenario(out, s)
	printResults(out, res)
	printCashFlows(out, s, flows)
	return nil
}

func runSensitivity(cmd *cobra.Command, opts *options) error {
	s, err := resolveScenario(cmd, opts)
	if err != nil {
		return err
	}
	drivers, err := roi.Sensitivity(s, opts.swing)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		return writeJSON(out, drivers)
	}
	fmt.Fprintf(out, "Sensitivity (±%s%% per assumption, ranked by NPV swing)\n\n", narrative.FormatRate(opts.swing))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Assumption\tLow\tHigh\tNPV low\tNPV high\tSwing")
	for _, d := range drivers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t$%s\t$%s\t$%s\n", d.Assumption,
			formatInput(d.Assumption, d.LowInput), formatInput(d.Assumption, d.HighInput),
			narrative.FormatMoney(d.NPVLow), narrative.FormatMoney(d.NPVHigh), narrative.FormatMoney(d.NPVDelta))
	}
	tw.Flush()
	return nil
}

func runAnalyze(cmd *cobra.Command, opts *options) error {
	s, err := resolveScenario(cmd, opts)
	if err != nil {
		return err
	}
	res, _, err := roi.Compute(s)
	if err != nil {
		return err
	}

	if err := prompt.LoadFromDirectory(opts.resources); err != nil {
		opts.logger.Debug("prompt library not loaded, using built-in prompt", zap.Error(err))
	}

	agentCfg, err := agent.LoadConfig(opts.modelsFile)
	if err != nil {
		return err
	}
	mgr := agent.NewManager(agentCfg, opts.logger.Named("agent"))
	if opts.provider != "" {
		if err := mgr.SetGlobalProvider(opts.provider); err != nil {
			return err
		}
	}

	var cache narrative.Cache
	if opts.cacheDir != "" {
		nc, err := store.NewNarrativeCache(nil, opts.cacheDir, 0)
		if err != nil {
			return err
		}
		cache = nc
	}

	req := narrative.Request{Scenario: s, Result: res, Context: opts.context}
	if opts.sensitive {
		if req.Drivers, err = roi.Sensitivity(s, opts.swing); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := narrative.NewAdvisor(mgr, cache, opts.logger.Named("narrative")).Analyze(ctx, req)
	out := cmd.OutOrStdout()
	if err != nil {
		opts.logger.Debug("analysis failed", zap.Error(err))
		fmt.Fprintln(out, narrative.UserMessage(err))
		// The message above is the user-facing report; only the exit status remains.
		cmd.SilenceErrors = true
		return err
	}

	if opts.jsonOut {
		return writeJSON(out, map[string]interface{}{"scenario": s, "results": res, "report": report})
	}
	printResults(out, res)
	fmt.Fprintf(out, "\n%s\n", report.Markdown)
	if report.Cached {
		fmt.Fprintln(out, "\n(cached)")
	}
	return nil
}

func printScenario(w io.Writer, s roi.Scenario) {
	fmt.Fprintln(w, "Scenario")
	fmt.Fprintf(w, "  Initial investment  $%s\n", narrative.FormatMoney(s.InitialInvestment))
	fmt.Fprintf(w, "  Annual benefit      $%s\n", narrative.FormatMoney(s.AnnualBenefit))
	fmt.Fprintf(w, "  Years               %d\n", s.Years)
	fmt.Fprintf(w, "  Discount rate       %s%%\n\n", narrative.FormatRate(s.DiscountRate))
}

func printResults(w io.Writer, res roi.Result) {
	fmt.Fprintln(w, "Results")
	fmt.Fprintf(w, "  Simple ROI          %s\n", narrative.FormatPercent(res.SimpleROI))
	fmt.Fprintf(w, "  Payback period      %s\n", narrative.FormatYears(res.PaybackPeriod))
	fmt.Fprintf(w, "  NPV                 $%s\n", narrative.FormatMoney(res.NPV))
	fmt.Fprintf(w, "  IRR                 %s\n", narrative.FormatPercent(res.IRR))
	for _, m := range []struct {
		name string
		m    roi.Metric
	}{{"Simple ROI", res.SimpleROI}, {"Payback", res.PaybackPeriod}, {"IRR", res.IRR}} {
		if !m.m.Defined {
			fmt.Fprintf(w, "  note: %s is N/A (%s)\n", m.name, m.m.Reason)
		}
	}
}

func printCashFlows(w io.Writer, s roi.Scenario, flows []roi.CashFlowPoint) {
	fmt.Fprintln(w, "\nCash flows")
	if len(flows) == 0 {
		fmt.Fprintln(w, "  (no benefit periods)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Period\tBenefit\tCumulative\tDiscounted\t")
	fmt.Fprintf(tw, "Year 0\t$%s\t$%s\t$%s\t\n",
		narrative.FormatMoney(-s.InitialInvestment), narrative.FormatMoney(-s.InitialInvestment), narrative.FormatMoney(-s.InitialInvestment))
	for _, p := range flows {
		fmt.Fprintf(tw, "%s\t$%s\t$%s\t$%s\t\n", p.Label,
			narrative.FormatMoney(p.NominalBenefit), narrative.FormatMoney(p.CumulativeNominal), narrative.FormatMoney(p.DiscountedBenefit))
	}
	tw.Flush()
}

func formatInput(assumption string, v float64) string {
	switch assumption {
	case "discount_rate":
		return strings.TrimSuffix(fmt.Sprintf("%.2f", v), ".00") + "%"
	case "years":
		return fmt.Sprintf("%.0f", v)
	default:
		return "$" + narrative.FormatMoney(v)
	}
}
