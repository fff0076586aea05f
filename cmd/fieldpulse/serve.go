package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fieldpulse/internal/server"
	"fieldpulse/internal/util"
)

var (
	servePort      int
	serveDev       bool
	serveDataDir   string
	serveNoBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia o painel web",
	Long: `Inicia o servidor HTTP com a API e o painel.

A porta do config.toml (ou FIELDPULSE_PORT) tem prioridade; sem porta
configurada, usa --port ou procura a primeira porta livre a partir da padrão.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&servePort, "port", 0, "porta do servidor (apenas quando o config não define a porta)")
	cmd.Flags().BoolVar(&serveDev, "dev", false, "modo de desenvolvimento")
	cmd.Flags().StringVar(&serveDataDir, "data-dir", "", "diretório de dados (sobrescreve o config)")
	cmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "não abrir o navegador")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, info := loadConfig()

	// 命令行参数覆盖配置
	if servePort > 0 && !info.PortSpecified {
		cfg.Server.Port = servePort
	} else if !info.PortSpecified {
		port, err := util.FindAvailablePort(cfg.Server.Port)
		if err != nil {
			return err
		}
		cfg.Server.Port = port
	}
	if serveDev {
		cfg.Server.DevMode = true
	}
	if serveDataDir != "" {
		cfg.Data.DataDir = serveDataDir
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(addr)
	}()

	if !cfg.Server.DevMode && !serveNoBrowser {
		if err := util.OpenBrowserWithFallback(url); err != nil {
			logger.Warn("open browser failed", zap.Error(err))
			fmt.Fprintf(cmd.OutOrStdout(), "Acesse manualmente: %s\n", url)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "FieldPulse em %s (Ctrl+C para encerrar)\n", url)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		_ = srv.Shutdown(context.Background())
		return err
	case <-quit:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
