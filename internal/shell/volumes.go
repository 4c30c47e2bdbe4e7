package shell

import (
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (s *Shell) volumesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "volumes",
		Short: "List the mounted volumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vols := s.handler.Volumes()

			rows := make([][]string, 0, len(vols))
			for _, v := range vols {
				rows = append(rows, []string{
					v.Root,
					v.Label,
					v.FileSystem,
					humanize.IBytes(v.TotalSize),
					humanize.IBytes(v.FreeSpace),
				})
			}

			printTable(cmd.OutOrStdout(), []string{"Root", "Label", "FS", "Size", "Free"}, rows)

			return nil
		},
	}
}

func (s *Shell) formatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "format <root> [label]",
		Short: "Format a volume, which must not have any open handles",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var label string
			if len(args) > 1 {
				label = args[1]
			}

			if err := s.handler.Format(args[0], label); err != nil {
				return err //nolint:wrapcheck
			}
			cmd.Printf("formatted %s\n", args[0])

			return nil
		},
	}
}

func (s *Shell) ejectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eject <root>",
		Short: "Evict all open handles of a volume and unmount it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := s.handler.Eject(args[0])

			for _, id := range slices.Sorted(maps.Keys(s.files)) {
				if f := s.files[id]; f.Evicted() {
					f.Close() //nolint:errcheck
					delete(s.files, id)
					cmd.Printf("handle %d was evicted\n", id)
				}
			}

			if err != nil {
				return err //nolint:wrapcheck
			}
			cmd.Printf("ejected %s\n", args[0])

			return nil
		},
	}
}

func (s *Shell) mountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mount <root>",
		Short: "Mount a previously ejected volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.handler.Mount(args[0]); err != nil {
				return err //nolint:wrapcheck
			}
			cmd.Printf("mounted %s\n", args[0])

			return nil
		},
	}
}
