package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	requeueReason string
	seedSurvey    string
	seedFile      string
)

var requeueCmd = &cobra.Command{
	Use:   "requeue <report-id>",
	Short: "Return an errored report to pending",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequeue,
}

var seedNarrativesCmd = &cobra.Command{
	Use:   "seed-narratives",
	Short: "Load group and summary narratives from a YAML file",
	Long: `Replace the narrative ranges of every group index and summary category named
in the file. Sections not named in the file are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runSeedNarratives,
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute-average <company-id>",
	Short: "Recompute a company's average total",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecompute,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print report counts per status",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(requeueCmd, seedNarrativesCmd, recomputeCmd, statsCmd)
	requeueCmd.Flags().StringVar(&requeueReason, "reason", "manual requeue", "Reason appended to the report log")
	seedNarrativesCmd.Flags().StringVar(&seedSurvey, "survey", "", "Survey id the group indexes refer to")
	seedNarrativesCmd.Flags().StringVar(&seedFile, "file", "", "Path to the narratives YAML file")
	_ = seedNarrativesCmd.MarkFlagRequired("survey")
	_ = seedNarrativesCmd.MarkFlagRequired("file")
}

func runRequeue(cmd *cobra.Command, args []string) error {
	id, err := parseID("report", args[0])
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Services.Reports.Requeue(cmd.Context(), id, strings.TrimSpace(requeueReason))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "report %s is %s\n", report.ID, report.Status)
	return nil
}

func runSeedNarratives(cmd *cobra.Command, _ []string) error {
	surveyID, err := parseID("survey", seedSurvey)
	if err != nil {
		return err
	}
	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("open narratives file: %w", err)
	}
	defer f.Close()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Services.Seeder.Seed(cmd.Context(), surveyID, f)
	if err != nil {
		return err
	}
	return writeJSON(cmd, res)
}

func runRecompute(cmd *cobra.Command, args []string) error {
	id, err := parseID("company", args[0])
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Services.Reports.RecomputeAverage(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "company %s average %s over %d reports\n", res.CompanyID, res.AverageTotal.StringFixed(2), res.ReportCount)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.Services.Reports.Stats(cmd.Context())
	if err != nil {
		return err
	}
	return writeJSON(cmd, counts)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
