package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/unrusty/pkg/object"
	"github.com/odvcencio/unrusty/pkg/repo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// typeFlag is a -t value restricted to the storable object types.
type typeFlag struct {
	t object.Type
}

var _ pflag.Value = (*typeFlag)(nil)

func (f *typeFlag) String() string { return f.t.String() }

func (f *typeFlag) Set(s string) error {
	t := object.ParseType(s)
	if !t.IsValid() {
		return fmt.Errorf("unknown object type %q (want blob, tree or commit)", s)
	}
	f.t = t
	return nil
}

func (f *typeFlag) Type() string { return "type" }

func newHashObjectCmd() *cobra.Command {
	var (
		objType    = typeFlag{t: object.TypeBlob}
		write      bool
		stdin      bool
		stdinPaths bool
		noFilters  bool
	)

	cmd := &cobra.Command{
		Use:   "hash-object [-t <type>] [-w] [--stdin | --stdin-paths] [--] <file>...",
		Short: "Compute object IDs and optionally store the objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdinPaths && len(args) > 0 {
				return errors.New("hash-object: --stdin-paths takes no file arguments")
			}
			if noFilters && !stdinPaths {
				return errors.New("hash-object: --no-filters requires --stdin-paths")
			}
			if !stdin && !stdinPaths && len(args) == 0 {
				return errors.New("hash-object: no input given")
			}

			// Hashing alone needs no repository.
			store := object.NewStore(nil)
			if write {
				r, err := repo.Open(".")
				if err != nil {
					return err
				}
				store = r.Store
			}
			out := cmd.OutOrStdout()

			if stdin {
				content, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return &object.Error{Kind: object.ErrInputReadFailure, Op: "hash-object", Path: "<stdin>", Err: err}
				}
				id, err := store.Insert(content, objType.t, !write)
				if err != nil {
					return fmt.Errorf("hash-object: %w", err)
				}
				fmt.Fprintln(out, id)
			}

			paths := args
			if stdinPaths {
				var err error
				if paths, err = readPaths(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			for _, p := range paths {
				id, err := store.InsertFile(p, objType.t, !write)
				if err != nil {
					return fmt.Errorf("hash-object: %w", err)
				}
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	cmd.Flags().VarP(&objType, "type", "t", "type of object (blob, tree, commit)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the store")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read the content to hash from stdin")
	cmd.Flags().BoolVar(&stdinPaths, "stdin-paths", false, "read file paths from stdin, one per line")
	cmd.Flags().BoolVar(&noFilters, "no-filters", false, "hash the contents as is (there are no filters)")
	cmd.MarkFlagsMutuallyExclusive("stdin", "stdin-paths")
	return cmd
}

// readPaths reads one path per line, dropping trailing whitespace.
func readPaths(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		paths = append(paths, strings.TrimRight(sc.Text(), " \t\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, &object.Error{Kind: object.ErrInputReadFailure, Op: "hash-object", Path: "<stdin>", Err: err}
	}
	return paths, nil
}
