package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/psclone/internal/manifest"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <manifest> <snapshot>",
		Short: "Check a snapshot against the manifest written with --manifest",
		Args:  cobra.ExactArgs(2),
		RunE:  runVerify,
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	mismatched, err := manifest.Verify(f, args[1])
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	for _, rel := range mismatched {
		fmt.Fprintf(cmd.OutOrStdout(), "MISMATCH: %s\n", rel)
	}
	if len(mismatched) > 0 {
		return &exitError{code: 1}
	}
	return nil
}
