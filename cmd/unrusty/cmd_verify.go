package main

import (
	"fmt"

	"github.com/odvcencio/unrusty/pkg/repo"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify object integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			report, err := r.Store.VerifyAll()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: verified %d object(s)\n", report.Objects)
			return nil
		},
	}
}
