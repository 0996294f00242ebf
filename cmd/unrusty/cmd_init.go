package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/unrusty/pkg/layout"
	"github.com/odvcencio/unrusty/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty unrusty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			// Ensure the target directory exists.
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			r, result, err := repo.Init(abs, force)
			if err != nil {
				return err
			}

			dir := filepath.Join(r.RootDir, layout.MarkerDir) + string(filepath.Separator)
			switch result {
			case repo.InitCreated:
				fmt.Fprintf(cmd.OutOrStdout(), "initialized empty unrusty repository in %s\n", dir)
			case repo.InitReset:
				fmt.Fprintf(cmd.OutOrStdout(), "reinitialized empty unrusty repository in %s\n", dir)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete and recreate an existing repository")
	return cmd
}
