package shell

import (
	"strconv"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/spf13/cobra"
)

// pathFunction is a path function exposed through the path command.
type pathFunction struct {
	name  string
	usage string
	nargs int
	run   func(args []string) (string, error)
}

func optional(value string, ok bool) (string, error) {
	return formatOptional(value, ok), nil
}

func quoted(value string) (string, error) {
	return strconv.Quote(value), nil
}

var pathFunctions = []pathFunction{
	{"rootlength", "Length of the root of a path", 1, func(a []string) (string, error) {
		return strconv.Itoa(pathing.RootLength(a[0])), nil
	}},
	{"root", "Root of a path", 1, func(a []string) (string, error) {
		return optional(pathing.GetPathRoot(a[0]))
	}},
	{"isrooted", "Whether a path is rooted", 1, func(a []string) (string, error) {
		return strconv.FormatBool(pathing.IsPathRooted(a[0])), nil
	}},
	{"normalize", "Path with normalized separators", 1, func(a []string) (string, error) {
		return quoted(pathing.NormalizeSeparators(a[0]))
	}},
	{"isempty", "Whether a path is effectively empty", 1, func(a []string) (string, error) {
		return strconv.FormatBool(pathing.IsEffectivelyEmpty(a[0])), nil
	}},
	{"combine", "Combination of two paths", 2, func(a []string) (string, error) {
		p, err := pathing.Combine(a[0], a[1])
		if err != nil {
			return "", err //nolint:wrapcheck
		}

		return quoted(p)
	}},
	{"dirname", "Directory part of a path", 1, func(a []string) (string, error) {
		return optional(pathing.GetDirectoryName(a[0]))
	}},
	{"filename", "File name part of a path", 1, func(a []string) (string, error) {
		return quoted(pathing.GetFileName(a[0]))
	}},
	{"stem", "File name part of a path without extension", 1, func(a []string) (string, error) {
		return quoted(pathing.GetFileNameWithoutExtension(a[0]))
	}},
	{"ext", "Extension of a path", 1, func(a []string) (string, error) {
		return quoted(pathing.GetExtension(a[0]))
	}},
	{"hasext", "Whether a path has an extension", 1, func(a []string) (string, error) {
		return strconv.FormatBool(pathing.HasExtension(a[0])), nil
	}},
	{"changeext", "Path with its extension changed", 2, func(a []string) (string, error) {
		return quoted(pathing.ChangeExtension(a[0], a[1]))
	}},
	{"removeext", "Path with its extension removed", 1, func(a []string) (string, error) {
		return quoted(pathing.RemoveExtension(a[0]))
	}},
}

func (s *Shell) pathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <function> <args>...",
		Short: "Evaluate a path function without touching any volume",
	}

	for _, fn := range pathFunctions {
		cmd.AddCommand(&cobra.Command{
			Use:   fn.name,
			Short: fn.usage,
			Args:  cobra.ExactArgs(fn.nargs),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := fn.run(args)
				if err != nil {
					return err
				}
				cmd.Println(out)

				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "full",
		Short: "Path resolved against the current directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			full, err := s.handler.GetFullPath(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}
			cmd.Println(strconv.Quote(full))

			return nil
		},
	})

	return cmd
}
