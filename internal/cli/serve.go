package cli

import (
	"github.com/spf13/cobra"
)

var serveNoWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the report worker",
	Long: `Run the HTTP API. Unless --no-worker is set the report worker pool runs in
the same process and drains pending reports.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoWorker, "no-worker", false, "Serve the API without processing reports")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.Start(ctx, !serveNoWorker)
	return a.RunHTTP(ctx)
}
