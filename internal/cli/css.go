package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/cssvar"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

type fixOptions struct {
	fix   bool
	write bool
}

// CSSResult css 命令的 JSON 输出
type CSSResult struct {
	Valid   bool                `json:"valid"`
	Issues  []entity.StyleIssue `json:"issues"`
	Fixed   *string             `json:"fixed,omitempty"`
	Applied []entity.StyleIssue `json:"applied,omitempty"`
}

// NewCSSCommand 检查并修复样式自定义属性
func NewCSSCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &fixOptions{}
	cmd := &cobra.Command{
		Use:           "css [file]",
		Short:         "Validate CSS custom properties",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCSS(cmd, rootOpts, opts, firstArg(args))
		},
	}
	addFixFlags(cmd, opts)
	return cmd
}

func runCSS(cmd *cobra.Command, rootOpts *RootOptions, opts *fixOptions, path string) error {
	src, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	issues := cssvar.Validate(src)
	res := CSSResult{Valid: len(issues) == 0, Issues: issues}
	if res.Issues == nil {
		res.Issues = []entity.StyleIssue{}
	}

	if !opts.fix {
		if rootOpts.Format == "json" {
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
		} else {
			printStyleIssues(cmd, path, issues)
		}
		if len(issues) > 0 {
			return issuesFound(len(issues), "style issue(s)")
		}
		return nil
	}

	fixed, applied := cssvar.Fix(src, issues)
	if opts.write {
		if err := writeOutput(cmd, path, fixed, true); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: applied %d fix(es)\n", displayName(path), len(applied))
		return nil
	}
	if rootOpts.Format == "json" {
		res.Fixed = &fixed
		res.Applied = applied
		return printJSON(cmd.OutOrStdout(), res)
	}
	return writeOutput(cmd, path, fixed, false)
}

func printStyleIssues(cmd *cobra.Command, path string, issues []entity.StyleIssue) {
	w := cmd.OutOrStdout()
	for _, is := range issues {
		fmt.Fprintf(w, "%s:%d:%d: %s (%s) %s\n", displayName(path), is.Line, is.Column, is.Kind, is.Severity, is.Suggestion)
	}
}

func addFixFlags(cmd *cobra.Command, opts *fixOptions) {
	cmd.Flags().BoolVar(&opts.fix, "fix", false, "apply fixes and print the result")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "with --fix, rewrite the file in place")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "<stdin>"
	}
	return path
}
