package shell

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/desertwitch/volguard/internal/storage"
	"github.com/spf13/cobra"
)

func (s *Shell) pwdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd := s.handler.CurrentDirectory()
			if cwd == "" {
				cwd = "<none>"
			}
			cmd.Println(cwd)

			return nil
		},
	}
}

func (s *Shell) cdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cd <path>",
		Short: "Change the current directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.handler.SetCurrentDirectory(args[0]); err != nil {
				return err //nolint:wrapcheck
			}
			cmd.Println(s.handler.CurrentDirectory())

			return nil
		},
	}
}

func (s *Shell) lsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List the entries of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			entries, err := s.handler.Enumerate(path)
			if err != nil {
				return err //nolint:wrapcheck
			}

			slices.SortFunc(entries, func(a, b schema.Entry) int {
				return cmp.Compare(a.Name(), b.Name())
			})

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				switch v := e.(type) {
				case *storage.FileEntry:
					rows = append(rows, []string{v.Attributes().String(), formatSize(v.Size()), formatTime(v.ModifiedAt()), v.Name()})
				case *storage.DirectoryEntry:
					rows = append(rows, []string{v.Attributes().String(), "<DIR>", formatTime(v.ModifiedAt()), v.Name()})
				}
			}

			printTable(cmd.OutOrStdout(), []string{"Attr", "Size", "Modified", "Name"}, rows)

			return nil
		},
	}
}

func (s *Shell) mkdirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory and any missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return s.handler.CreateDirectory(args[0]) //nolint:wrapcheck
		},
	}
}

func (s *Shell) rmdirCommand() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rmdir [-r] <path>",
		Short: "Delete a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return s.handler.DeleteDirectory(args[0], recursive) //nolint:wrapcheck
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Delete everything within the directory")

	return cmd
}

func (s *Shell) lockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <dir>",
		Short: "Lock a directory against any open beneath it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := s.handler.LockDirectory(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}
			s.locks[l.Key()] = l
			cmd.Printf("locked %s\n", l.Key())

			return nil
		},
	}
}

func (s *Shell) unlockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <dir>",
		Short: "Release the lock of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			full, err := s.handler.GetFullPath(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}

			key, err := registry.Canonicalize(full)
			if err != nil {
				return fmt.Errorf("(shell-unlock) %w", err)
			}
			delete(s.locks, key)

			return s.handler.UnlockDirectory(full) //nolint:wrapcheck
		},
	}
}
