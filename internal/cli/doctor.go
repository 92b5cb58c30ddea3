package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"brainbox/internal/config"
	"brainbox/internal/monitor"
	"brainbox/internal/provider"
)

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose system health",
		Long: `Run diagnostic checks on your Brainbox installation.

This command checks:
- Configuration file presence
- Database accessibility
- Model backend reachability`,
		RunE: runDoctor,
	}
}

type checkResult struct {
	name    string
	status  string // ok, warning, error
	message string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cliCtx, err := mustCLIContext(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Brainbox Doctor")
	fmt.Fprintln(out, "===============")
	fmt.Fprintln(out)

	results := []checkResult{
		checkSystemInfo(),
		checkConfigFile(cliCtx.ConfigPath),
		checkStorage(cliCtx),
		checkBackend(cmd.Context(), cliCtx),
	}
	printResults(out, results)
	return nil
}

func printResults(out io.Writer, results []checkResult) {
	hasErrors, hasWarnings := false, false
	for _, r := range results {
		icon := "✓"
		switch r.status {
		case "warning":
			icon = "!"
			hasWarnings = true
		case "error":
			icon = "✗"
			hasErrors = true
		}
		fmt.Fprintf(out, "%s %s: %s\n", icon, r.name, r.message)
	}

	fmt.Fprintln(out)
	switch {
	case hasErrors:
		fmt.Fprintln(out, "Some checks failed. Please address the issues above.")
	case hasWarnings:
		fmt.Fprintln(out, "Some warnings detected. Brainbox should work but may have issues.")
	default:
		fmt.Fprintln(out, "All checks passed! Brainbox is ready to use.")
	}
}

func checkSystemInfo() checkResult {
	return checkResult{
		name:    "System",
		status:  "ok",
		message: fmt.Sprintf("Go %s on %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
}

func checkConfigFile(path string) checkResult {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return checkResult{
			name:    "Config File",
			status:  "warning",
			message: fmt.Sprintf("Not found: %s (using defaults, run 'brainbox config init')", path),
		}
	}
	return checkResult{name: "Config File", status: "ok", message: path}
}

func checkStorage(cliCtx *CLIContext) checkResult {
	db, err := cliCtx.GetStorage()
	if err != nil {
		return checkResult{name: "Database", status: "error", message: err.Error()}
	}
	snap, err := db.Snapshot(context.Background())
	if err != nil {
		return checkResult{name: "Database", status: "error", message: err.Error()}
	}
	version, latest, err := db.SchemaVersion()
	if err != nil {
		return checkResult{name: "Database", status: "error", message: err.Error()}
	}
	res := checkResult{
		name:    "Database",
		status:  "ok",
		message: fmt.Sprintf("%s (%d tasks, schema v%d)", db.Path(), snap.Count, version),
	}
	if version < latest {
		res.status = "warning"
		res.message += fmt.Sprintf(", expected v%d", latest)
	}
	return res
}

func checkBackend(ctx context.Context, cliCtx *CLIContext) checkResult {
	name := "Backend (" + cliCtx.Config.Backend.Kind + ")"
	backend, err := cliCtx.NewBackend()
	if err != nil {
		return checkResult{name: name, status: "error", message: err.Error()}
	}
	mon, err := monitor.New(backend, config.MonitorConfig{Timeout: 5 * time.Second})
	if err != nil {
		return checkResult{name: name, status: "error", message: err.Error()}
	}

	state := mon.Check(ctx)
	switch state.Status {
	case provider.StatusConnected:
		msg := fmt.Sprintf("reachable in %s", state.Latency.Round(time.Millisecond))
		if len(state.Models) > 0 {
			msg += fmt.Sprintf(", %d models installed", len(state.Models))
		}
		return checkResult{name: name, status: "ok", message: msg}
	case provider.StatusUnknown:
		return checkResult{name: name, status: "warning", message: "backend does not support health checks"}
	default:
		return checkResult{name: name, status: "error", message: fmt.Sprintf("%s: %s", state.Status, state.LastError)}
	}
}
