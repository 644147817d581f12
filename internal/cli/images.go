package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/collaborator"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
)

// NewImagesCommand 探测文件中引用的图片地址
//
// --fix 需要配置图库凭据，替换后的内容写回原文件。
func NewImagesCommand(rootOpts *RootOptions) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:           "images <file>...",
		Short:         "Check image URLs referenced by files",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImages(cmd, rootOpts, args, fix)
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "replace broken images with stock photos and rewrite the files")
	return cmd
}

func runImages(cmd *cobra.Command, rootOpts *RootOptions, paths []string, fix bool) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}

	var stock imagecheck.StockPhotoFinder
	if fix {
		if cfg.Collaborators.StockPhoto.APIKey == "" {
			return errors.New("--fix needs collaborators.stock_photo.api_key (use --config)")
		}
		stock = collaborator.NewStockPhotoClient(cfg.Collaborators.StockPhoto, nil, 0)
	}

	files := make([]entity.GeneratedFile, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, entity.GeneratedFile{Path: p, Content: string(b)})
	}

	ctx := cmd.Context()
	checker := imagecheck.New(nil, stock, imagecheck.Config{
		Timeout:     cfg.Repair.CheckTimeout,
		Concurrency: cfg.Repair.CheckConcurrency,
	})
	report, fixed, err := checker.Validate(ctx, files, imagecheck.Options{AutoFix: fix})
	if err != nil {
		return err
	}
	logger.Debug(ctx, "image check finished", "files", len(files), "checked", report.Checked, "replaced", report.Replaced)

	if fix && report.Replaced > 0 {
		for i, f := range fixed {
			if f.Content == files[i].Content {
				continue
			}
			if err := writeOutput(cmd, f.Path, f.Content, true); err != nil {
				return err
			}
		}
	}

	if report.Broken == nil {
		report.Broken = []entity.BrokenImageRef{}
	}
	if rootOpts.Format == "json" {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, b := range report.Broken {
			if b.StatusCode > 0 {
				fmt.Fprintf(w, "%s: %s %s (%d)\n", b.File, b.URL, b.Reason, b.StatusCode)
			} else {
				fmt.Fprintf(w, "%s: %s %s\n", b.File, b.URL, b.Reason)
			}
		}
		fmt.Fprintf(w, "checked %d, broken %d, replaced %d\n", report.Checked, len(report.Broken), report.Replaced)
	}
	if len(report.Broken) > report.Replaced {
		return issuesFound(len(report.Broken), "broken image(s)")
	}
	return nil
}
