// Package cli 提供 repairctl 命令行：在本地文件上运行产物修复步骤
package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
)

// RootOptions 全局参数
type RootOptions struct {
	Verbose   bool
	Format    string
	ConfigDir string
}

// ValidFormats 支持的输出格式
var ValidFormats = []string{"text", "json"}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "repairctl",
		Short:         "Repair generated site artifacts",
		Long:          "Run the unicode, style and image repair passes on local files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			logger.InitWithWriter(cmd.ErrOrStderr(), level, "text")
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", "", "config directory for image check settings")

	cmd.AddCommand(NewCSSCommand(opts))
	cmd.AddCommand(NewUnicodeCommand(opts))
	cmd.AddCommand(NewImagesCommand(opts))

	return cmd
}

// loadConfig 未指定配置目录时返回空配置，各项取默认值
func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigDir == "" {
		return &config.Config{}, nil
	}
	return config.LoadFrom(o.ConfigDir)
}

// readInput 读取文件内容，路径为 "-" 或为空时读标准输入
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// writeOutput 写回文件或输出到标准输出
func writeOutput(cmd *cobra.Command, path, content string, inPlace bool) error {
	if inPlace && path != "" && path != "-" {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(content), info.Mode().Perm())
	}
	_, err := io.WriteString(cmd.OutOrStdout(), content)
	return err
}
