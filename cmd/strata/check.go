package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"strata/internal/diag"
	"strata/internal/driver"
	"strata/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.toml | dir>",
	Short: "Link class documents and report problems",
	Long:  `Parse one class document (or a directory of them), link every definition, and report document and link problems`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("progress", false, "render per-file progress (directories only)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	maxDiag, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showProgress, err := cmd.Flags().GetBool("progress")
	if err != nil {
		return fmt.Errorf("failed to get progress flag: %w", err)
	}

	opts := driver.Options{MaxDiagnostics: maxDiag}
	var res *driver.Result
	if showProgress && isTerminal(os.Stdout) {
		res, err = loadWithProgress(cmd, path, opts)
	} else {
		res, err = driver.Load(cmd.Context(), path, opts)
	}
	if err != nil {
		return err
	}

	for _, d := range res.Bag.Items() {
		if quiet && d.Severity < diag.SevError {
			continue
		}
		fmt.Fprintln(os.Stderr, renderDiagnostic(d))
	}
	if res.Bag.HasErrors() {
		os.Exit(1)
	}
	if !quiet {
		fmt.Printf("linked %d classes from %d documents\n", len(res.Registry.Classes()), len(res.Documents))
	}
	return nil
}

func loadWithProgress(cmd *cobra.Command, path string, opts driver.Options) (*driver.Result, error) {
	files, err := driver.ListDocuments(path)
	if err != nil {
		return nil, err
	}
	events := make(chan driver.Event, len(files)*2)
	opts.Events = events

	var res *driver.Result
	var loadErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, loadErr = driver.Load(cmd.Context(), path, opts)
	}()

	prog := tea.NewProgram(ui.NewProgressModel("linking class documents", files, events))
	_, runErr := prog.Run()
	// The program may exit before the load finishes (ctrl+c); keep draining
	// so the driver never blocks on a full channel.
	for range events {
	}
	<-done
	if runErr != nil {
		return nil, runErr
	}
	return res, loadErr
}

var (
	sevErrorColor = color.New(color.FgRed, color.Bold)
	sevWarnColor  = color.New(color.FgYellow)
	sevInfoColor  = color.New(color.FgCyan)
)

func renderDiagnostic(d diag.Diagnostic) string {
	line := d.Format()
	switch d.Severity {
	case diag.SevError:
		return sevErrorColor.Sprint(line)
	case diag.SevWarning:
		return sevWarnColor.Sprint(line)
	default:
		return sevInfoColor.Sprint(line)
	}
}
