package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workerOnce bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process pending reports without serving HTTP",
	Long: `Run the report worker pool until interrupted. With --once, claim and
process a single pending report and exit.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "Process at most one pending report")
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if workerOnce {
		ok, err := a.Worker.ProcessNext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no pending reports")
		}
		return nil
	}

	a.Start(ctx, true)
	<-ctx.Done()
	return nil
}
