package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/desertwitch/volguard/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const defaultReadSize = 4096

var openModes = map[string]schema.OpenMode{
	"open":         schema.ModeOpen,
	"createnew":    schema.ModeCreateNew,
	"create":       schema.ModeCreate,
	"openorcreate": schema.ModeOpenOrCreate,
	"truncate":     schema.ModeTruncate,
	"append":       schema.ModeAppend,
}

var attributeFlags = map[byte]schema.Attributes{
	'r': schema.AttrReadOnly,
	'h': schema.AttrHidden,
	's': schema.AttrSystem,
	'a': schema.AttrArchive,
}

func (s *Shell) file(arg string) (*storage.File, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a handle", ErrInvalidArgument, arg)
	}

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, id)
	}

	return f, nil
}

func (s *Shell) openCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "open <path> [r|w|rw] [none|r|w|rw]",
		Short: "Open a file with the given access and share mode",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			access, share := registry.AccessRead, registry.ShareRead

			if len(args) > 1 {
				a, err := registry.ParseAccess(args[1])
				if err != nil {
					return err //nolint:wrapcheck
				}
				access = a
			}

			if len(args) > 2 {
				sh, err := registry.ParseShare(args[2])
				if err != nil {
					return err //nolint:wrapcheck
				}
				share = sh
			}

			openMode, ok := openModes[strings.ToLower(mode)]
			if !ok {
				return fmt.Errorf("%w: open mode %q", ErrInvalidArgument, mode)
			}

			f, err := s.handler.OpenFile(args[0], openMode, access, share)
			if err != nil {
				return err //nolint:wrapcheck
			}
			s.files[f.ID()] = f

			cmd.Printf("opened handle %d: %s (%s, share %s)\n", f.ID(), f.Path(), access, share)

			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "open", "Open mode (open|createnew|create|openorcreate|truncate|append)")

	return cmd
}

func (s *Shell) closeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close a file opened in this console",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := s.file(args[0])
			if err != nil {
				return err
			}
			delete(s.files, f.ID())

			return f.Close() //nolint:wrapcheck
		},
	}
}

func (s *Shell) readCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id> [bytes]",
		Short: "Read from an open file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := s.file(args[0])
			if err != nil {
				return err
			}

			size := defaultReadSize
			if len(args) > 1 {
				size, err = strconv.Atoi(args[1])
				if err != nil || size <= 0 {
					return fmt.Errorf("%w: byte count %q", ErrInvalidArgument, args[1])
				}
			}

			buf := make([]byte, size)
			n, err := f.Read(buf)
			if err != nil && !errors.Is(err, io.EOF) {
				return err //nolint:wrapcheck
			}

			cmd.Println(string(buf[:n]))

			return nil
		},
	}
}

func (s *Shell) writeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "write <id> <text>...",
		Short: "Write text to an open file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := s.file(args[0])
			if err != nil {
				return err
			}

			n, err := f.Write([]byte(strings.Join(args[1:], " ")))
			if err != nil {
				return err //nolint:wrapcheck
			}

			cmd.Printf("wrote %s\n", humanize.IBytes(uint64(n))) //nolint:gosec

			return nil
		},
	}
}

func (s *Shell) handlesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "handles",
		Short: "List all open handles and locked directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := s.handler.Registry().Snapshot()

			rows := make([][]string, 0, len(snap.Handles)+len(snap.Locked))
			for _, h := range snap.Handles {
				owner := "system"
				switch {
				case h.Current:
					owner = "cwd"
				case s.files[h.ID] != nil:
					owner = "console"
				}
				rows = append(rows, []string{
					strconv.FormatUint(h.ID, 10),
					h.Access.String(),
					h.Share.String(),
					humanize.RelTime(h.OpenedAt, time.Now(), "ago", "from now"),
					owner,
					h.Path,
				})
			}
			for _, key := range snap.Locked {
				rows = append(rows, []string{"-", "lock", "-", "-", "-", key.String()})
			}

			printTable(cmd.OutOrStdout(), []string{"ID", "Access", "Share", "Opened", "Owner", "Path"}, rows)

			return nil
		},
	}
}

func (s *Shell) statCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show information about a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := s.handler.Entry(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}

			pairs := [][2]string{
				{"Path", e.Path()},
				{"Attributes", e.Attributes().String()},
			}

			switch v := e.(type) {
			case *storage.FileEntry:
				pairs = append(pairs,
					[2]string{"Type", "file"},
					[2]string{"Size", fmt.Sprintf("%s (%d bytes)", formatSize(v.Size()), v.Size())},
					[2]string{"Modified", formatTime(v.ModifiedAt())},
				)
			case *storage.DirectoryEntry:
				pairs = append(pairs,
					[2]string{"Type", "directory"},
					[2]string{"Modified", formatTime(v.ModifiedAt())},
				)
			}

			printPairs(cmd.OutOrStdout(), pairs)

			return nil
		},
	}
}

func (s *Shell) attribCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attrib <path> [+r|-r|+h|-h|+s|-s|+a|-a]...",
		Short: "Show or change the attributes of a file or directory",
		Args:  cobra.MinimumNArgs(1),
		// -r and friends are attribute changes, not flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := s.handler.GetAttributes(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}

			if len(args) > 1 {
				for _, arg := range args[1:] {
					if len(arg) != 2 || (arg[0] != '+' && arg[0] != '-') || attributeFlags[arg[1]] == 0 {
						return fmt.Errorf("%w: attribute %q", ErrInvalidArgument, arg)
					}
					if arg[0] == '+' {
						attrs |= attributeFlags[arg[1]]
					} else {
						attrs &^= attributeFlags[arg[1]]
					}
				}

				if err := s.handler.SetAttributes(args[0], attrs); err != nil {
					return err //nolint:wrapcheck
				}

				if attrs, err = s.handler.GetAttributes(args[0]); err != nil {
					return err //nolint:wrapcheck
				}
			}

			cmd.Println(attrs.String())

			return nil
		},
	}
}

func (s *Shell) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return s.handler.DeleteFile(args[0]) //nolint:wrapcheck
		},
	}
}

func (s *Shell) mvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			e, err := s.handler.Entry(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}

			if e.IsDir() {
				return s.handler.MoveDirectory(args[0], args[1]) //nolint:wrapcheck
			}

			return s.handler.MoveFile(args[0], args[1]) //nolint:wrapcheck
		},
	}
}

func (s *Shell) cpCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cp [-f] <src> <dst>",
		Short: "Copy a file, verifying its checksum",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.handler.CopyFile(cmd.Context(), args[0], args[1], force) //nolint:wrapcheck
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing destination")

	return cmd
}
