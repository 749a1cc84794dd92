// Package cli contains the surveyreport commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/surveyreport-backend/internal/app"
)

// Version is overridden at build time.
var Version = "0.1.0"

// newApp is swapped in tests that only exercise argument handling.
var newApp = app.New

var rootCmd = &cobra.Command{
	Use:   "surveyreport",
	Short: "Survey scoring and PDF report service",
	Long: `surveyreport scores participant answers, keeps company averages current
and renders the 21-page assessment report.

Configuration is read from the environment (DATABASE_URL, OBJECT_STORAGE_MODE,
CHART_RENDER_MODE, ...). See 'surveyreport <command> --help' for details.

Examples:
  surveyreport serve                     # API plus background worker
  surveyreport worker --once             # Process one pending report
  surveyreport requeue <report-id>       # Return an errored report to the queue
  surveyreport seed-narratives --survey <id> --file narratives.yaml`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}
