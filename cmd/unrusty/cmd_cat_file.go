package main

import (
	"errors"
	"fmt"

	"github.com/odvcencio/unrusty/pkg/object"
	"github.com/odvcencio/unrusty/pkg/repo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var (
		showType         bool
		showSize         bool
		check            bool
		pretty           bool
		allowUnknownType bool
	)

	cmd := &cobra.Command{
		Use:   "cat-file (-t [--allow-unknown-type] | -s [--allow-unknown-type] | -e | -p) <object>",
		Short: "Show the type, size or content of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if allowUnknownType && !showType && !showSize {
				return errors.New("cat-file: --allow-unknown-type requires -t or -s")
			}
			id, err := object.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("cat-file: %w", err)
			}
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case showType:
				t, err := r.Store.TypeOf(id, allowUnknownType)
				if err != nil {
					return fmt.Errorf("cat-file: %w", err)
				}
				fmt.Fprintln(out, t)
			case showSize:
				n, err := r.Store.SizeOf(id, allowUnknownType)
				if err != nil {
					return fmt.Errorf("cat-file: %w", err)
				}
				fmt.Fprintln(out, n)
			case check:
				if err := r.Store.Check(id); err != nil {
					logrus.WithField("object", id).WithError(err).Error("object is invalid")
					return &exitError{code: 1}
				}
			case pretty:
				text, err := r.Store.Pretty(id)
				if err != nil {
					return fmt.Errorf("cat-file: %w", err)
				}
				fmt.Fprintln(out, text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the payload size")
	cmd.Flags().BoolVarP(&check, "check", "e", false, "exit with status 1 if the object is missing or malformed")
	cmd.Flags().BoolVarP(&pretty, "print", "p", false, "print the payload as text")
	cmd.Flags().BoolVar(&allowUnknownType, "allow-unknown-type", false, "let -t and -s report objects of unknown type")
	cmd.MarkFlagsMutuallyExclusive("type", "size", "check", "print")
	cmd.MarkFlagsOneRequired("type", "size", "check", "print")
	return cmd
}
