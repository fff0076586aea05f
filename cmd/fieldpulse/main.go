package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fieldpulse/internal/config"
)

var (
	// 全局参数
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fieldpulse",
	Short: "FieldPulse - análise de produtividade de técnicos de campo",
	Long: `FieldPulse lê a planilha de produção diária dos técnicos, calcula
totais diários e semanais contra as metas, ranking de consistência,
tendências, padrões e alertas.

Sem subcomando, inicia o painel web (equivalente a "fieldpulse serve").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log detalhado (debug)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "arquivo config.toml (padrão: ao lado do executável)")

	addServeFlags(rootCmd)
	addServeFlags(serveCmd)
	addReportFlags(reportCmd)
	addTemplateFlags(templateCmd)

	rootCmd.AddCommand(serveCmd, reportCmd, templateCmd)
}

// readConfig 读取 --config 指定的配置（未指定时为可执行文件旁的 config.toml）
func readConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, info, err := config.LoadConfigFrom(path)
	if err != nil {
		return nil, info, fmt.Errorf("load config %s: %w", path, err)
	}
	logger.Debug("config loaded", zap.String("path", info.Path), zap.Bool("from_file", info.FromFile))
	return cfg, info, nil
}

// loadConfig 加载配置；失败时回退到默认配置并记录警告
func loadConfig() (*config.AppConfig, config.LoadConfigInfo) {
	cfg, info, err := readConfig()
	if err != nil {
		logger.Warn("load config failed, using defaults", zap.Error(err))
		return config.DefaultConfig(), config.LoadConfigInfo{Path: info.Path}
	}
	return cfg, info
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
