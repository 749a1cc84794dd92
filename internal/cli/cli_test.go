package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yungbote/surveyreport-backend/internal/app"
)

var errNoApp = errors.New("app construction not expected")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := newApp
	newApp = func() (*app.App, error) { return nil, errNoApp }
	t.Cleanup(func() {
		newApp = prev
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestRequeueRejectsInvalidID(t *testing.T) {
	_, err := execute(t, "requeue", "not-a-uuid")
	if err == nil || !strings.Contains(err.Error(), "invalid report id") {
		t.Fatalf("want invalid id error got=%v", err)
	}
}

func TestRecomputeRejectsNilID(t *testing.T) {
	_, err := execute(t, "recompute-average", "00000000-0000-0000-0000-000000000000")
	if err == nil || !strings.Contains(err.Error(), "invalid company id") {
		t.Fatalf("want invalid id error got=%v", err)
	}
}

func TestRecomputeBuildsAppForValidID(t *testing.T) {
	_, err := execute(t, "recompute-average", "7d3c8f4e-5a1b-4c2d-9e8f-0a1b2c3d4e5f")
	if !errors.Is(err, errNoApp) {
		t.Fatalf("want app construction error got=%v", err)
	}
}

func TestSeedNarrativesRequiresFlags(t *testing.T) {
	_, err := execute(t, "seed-narratives", "--survey", "7d3c8f4e-5a1b-4c2d-9e8f-0a1b2c3d4e5f")
	if err == nil || !strings.Contains(err.Error(), "file") {
		t.Fatalf("want missing flag error got=%v", err)
	}
}

func TestSeedNarrativesReportsMissingFile(t *testing.T) {
	_, err := execute(t, "seed-narratives", "--survey", "7d3c8f4e-5a1b-4c2d-9e8f-0a1b2c3d4e5f", "--file", t.TempDir()+"/missing.yaml")
	if err == nil || !strings.Contains(err.Error(), "open narratives file") {
		t.Fatalf("want open error got=%v", err)
	}
}

func TestRootListsCommands(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"serve", "worker", "requeue", "seed-narratives", "recompute-average", "stats"} {
		if !strings.Contains(out, name) {
			t.Fatalf("help output missing %q", name)
		}
	}
}
