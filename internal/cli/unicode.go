package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/unescape"
)

// UnicodeResult unicode 命令的 JSON 输出
type UnicodeResult struct {
	Decoded int     `json:"decoded"`
	Content *string `json:"content,omitempty"`
}

// NewUnicodeCommand 还原字面输出的 Unicode 转义
func NewUnicodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &fixOptions{}
	cmd := &cobra.Command{
		Use:           "unicode [file]",
		Short:         "Decode literal unicode escape sequences",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnicode(cmd, rootOpts, opts, firstArg(args))
		},
	}
	addFixFlags(cmd, opts)
	return cmd
}

func runUnicode(cmd *cobra.Command, rootOpts *RootOptions, opts *fixOptions, path string) error {
	src, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	n := unescape.Count(src)

	if !opts.fix {
		if rootOpts.Format == "json" {
			if err := printJSON(cmd.OutOrStdout(), UnicodeResult{Decoded: n}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d escape sequence(s)\n", displayName(path), n)
		}
		if n > 0 {
			return issuesFound(n, "escape sequence(s)")
		}
		return nil
	}

	out := unescape.Normalize(src)
	if opts.write {
		if n == 0 {
			return nil
		}
		if err := writeOutput(cmd, path, out, true); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: decoded %d sequence(s)\n", displayName(path), n)
		return nil
	}
	if rootOpts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), UnicodeResult{Decoded: n, Content: &out})
	}
	return writeOutput(cmd, path, out, false)
}
