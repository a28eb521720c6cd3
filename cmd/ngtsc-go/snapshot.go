package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <manifest> <url>",
		Short: "Record the component scopes of a manifest for later compilations",
		Args:  cobra.ExactArgs(2),
		RunE:  runSnapshot,
	}
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	compilation, err := loadCompilation(cmd, args[0])
	if err != nil {
		return err
	}
	// Analysis decides which components need remote scoping.
	for _, component := range compilation.Components() {
		if _, err := compilation.AnalyzeComponent(component); err != nil {
			return err
		}
	}
	snapshot := compilation.Snapshot()
	if err := compilation.SaveSnapshot(cmd.Context(), args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d component scope(s) to %s\n", okColor.Sprint("wrote"), len(snapshot.Components), args[1])
	return nil
}
