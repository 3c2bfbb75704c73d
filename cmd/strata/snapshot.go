package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strata/internal/driver"
	"strata/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [flags] <file.toml | dir> <class>",
	Short: "Materialize an instance and write its snapshot",
	Long:  `Link the class documents at the given path, materialize one instance of the named class, and write its serialized state`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringP("out", "o", "", "output file (default <class>.snap)")
	snapshotCmd.Flags().Bool("verify", false, "restore the snapshot after writing and compare the class")
	snapshotCmd.Flags().Bool("unchecked", false, "materialize without private/protected access checks")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	path, className := args[0], args[1]
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return fmt.Errorf("failed to get verify flag: %w", err)
	}
	unchecked, err := cmd.Flags().GetBool("unchecked")
	if err != nil {
		return fmt.Errorf("failed to get unchecked flag: %w", err)
	}
	if out == "" {
		out = className + ".snap"
	}

	res, err := driver.Load(cmd.Context(), path, driver.Options{})
	if err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		for _, d := range res.Bag.Items() {
			fmt.Fprintln(os.Stderr, renderDiagnostic(d))
		}
		os.Exit(1)
	}

	res.Registry.Unchecked = unchecked
	inst, err := res.Registry.New(className)
	if err != nil {
		return fmt.Errorf("materialize %s: %w", className, err)
	}
	data, err := snapshot.Capture(inst)
	if err != nil {
		return fmt.Errorf("capture %s: %w", className, err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	if verify {
		restored, err := snapshot.Restore(res.Registry, data)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if restored.Name() != className {
			return fmt.Errorf("verify: restored class %s, want %s", restored.Name(), className)
		}
	}
	fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
	return nil
}
