// Package cli implements the brainbox command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"brainbox/internal/config"
	"brainbox/pkg/logger"
)

// GlobalFlags 所有子命令共享的标志
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

type contextKey struct{}

// NewRootCmd 创建根命令。每次调用得到独立的标志集合。
func NewRootCmd() *cobra.Command {
	flags := &GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "brainbox",
		Short: "Brainbox - on-device productivity assistant",
		Long: `Brainbox is a local productivity assistant backed by an on-device
language model. It keeps your task list in a local database and answers
chat turns with a retrying, tool-degrading orchestrator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// version 和 help 不需要配置
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			cliCtx, err := setup(flags)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cliCtx))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx := GetCLIContext(cmd); cliCtx != nil {
				return cliCtx.Close()
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.ConfigPath, "config", "c", "", "config file path (default ~/.brainbox/config.yaml)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "log at debug level")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "log errors only")

	rootCmd.AddCommand(
		NewVersionCmd(),
		NewConfigCmd(),
		NewServeCmd(),
		NewChatCmd(),
		NewTaskCmd(),
		NewToolCmd(),
		NewDoctorCmd(),
	)
	return rootCmd
}

// setup 加载配置、初始化日志并确定数据库位置
func setup(flags *GlobalFlags) (*CLIContext, error) {
	configPath := flags.ConfigPath
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.LogConfig{
		Level:  logLevel(cfg.Log.Level, flags),
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}); err != nil {
		return nil, err
	}

	storagePath, err := resolveStoragePath(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	return NewCLIContext(cfg, configPath, logger.Get(), storagePath, flags.Verbose, flags.Quiet), nil
}

// logLevel --quiet 优先于 --verbose
func logLevel(configured string, flags *GlobalFlags) string {
	switch {
	case flags.Quiet:
		return "error"
	case flags.Verbose:
		return "debug"
	default:
		return configured
	}
}

func resolveStoragePath(configured string) (string, error) {
	if configured == "" {
		return config.DefaultDataPath()
	}
	return config.ExpandPath(configured)
}

// GetCLIContext 从命令上下文获取 CLI 上下文，未初始化时返回 nil
func GetCLIContext(cmd *cobra.Command) *CLIContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cliCtx, _ := ctx.Value(contextKey{}).(*CLIContext)
	return cliCtx
}

func mustCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	if cliCtx := GetCLIContext(cmd); cliCtx != nil {
		return cliCtx, nil
	}
	return nil, errCLIContext
}
