package main

import (
	"github.com/odvcencio/unrusty/pkg/repo"
	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <files...>",
		Short: "Stage files in the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			summary, err := r.Add(repo.RoleRegular, args)
			if err != nil {
				return err
			}
			// Failed paths were logged as they happened.
			if len(summary.Failed) > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
