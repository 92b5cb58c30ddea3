package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"brainbox/internal/config"
	"brainbox/internal/gateway"
	"brainbox/internal/monitor"
	"brainbox/internal/runner"
	"brainbox/internal/tools"
	"brainbox/internal/tools/builtin"
	"brainbox/pkg/logger"
)

const defaultPort = 18790

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Brainbox gateway server",
		Long: `Start the Brainbox gateway server.

This command starts the HTTP gateway that provides:
- the chat endpoint backed by the turn orchestrator
- task CRUD endpoints and WebSocket chat
- backend health and Prometheus metrics

Changes to the orchestrator section of the config file are applied
without a restart.`,
		Example: `  # Start server with default configuration
  brainbox serve

  # Start server on a custom port
  brainbox serve --port 8080`,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "port to listen on (overrides config)")
	cmd.Flags().String("host", "", "host to bind to (overrides config)")

	return cmd
}

// app 是 serve 命令装配出的全部服务
type app struct {
	runner   *runner.Runner
	tools    *tools.Registry
	monitor  *monitor.Monitor
	server   *gateway.Server
	registry *prometheus.Registry
}

func newApp(cliCtx *CLIContext) (*app, error) {
	cfg := cliCtx.Config

	db, err := cliCtx.GetStorage()
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	backend, err := cliCtx.NewBackend()
	if err != nil {
		return nil, err
	}
	reg, err := builtin.NewRegistryWithBuiltins(db)
	if err != nil {
		return nil, err
	}
	tiers, err := runner.NewTierSelector(reg, cfg.Orchestrator.Tiers.Essential, cfg.Orchestrator.Tiers.Minimal)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := runner.NewMetrics(promReg)
	if err != nil {
		return nil, err
	}

	r, err := runner.New(backend, tiers, db,
		runner.WithLogger(logger.Component("runner")),
		runner.WithMetrics(metrics),
		runner.WithSettings(runner.SettingsFromConfig(cfg.Orchestrator)),
	)
	if err != nil {
		return nil, err
	}

	a := &app{runner: r, tools: reg, registry: promReg}
	deps := gateway.Deps{
		Runner:   r,
		Store:    db,
		Tools:    reg,
		Gatherer: promReg,
		Version:  Version,
	}
	if cfg.Monitor.Enabled {
		a.monitor, err = monitor.New(backend, cfg.Monitor,
			monitor.WithLogger(logger.Component("monitor")),
			monitor.WithRegisterer(promReg),
		)
		if err != nil {
			return nil, err
		}
		deps.States = a.monitor
	}

	gw := cfg.Gateway
	if gw.Port == 0 {
		gw.Port = defaultPort
	}
	a.server = gateway.NewServer(gw, deps)
	a.server.Hub().SetHistoryLimit(runner.SettingsFromConfig(cfg.Orchestrator).HistoryWindow)
	return a, nil
}

// applyConfig 热更新编排参数；后端、工具层级等需要重启
func (a *app) applyConfig(cfg *config.Config) {
	settings := runner.SettingsFromConfig(cfg.Orchestrator)
	a.runner.UpdateSettings(settings)
	a.server.Hub().SetHistoryLimit(settings.HistoryWindow)
	logger.Info().
		Int("history_window", cfg.Orchestrator.HistoryWindow).
		Dur("simple_timeout", cfg.Orchestrator.SimpleTimeout).
		Dur("complex_timeout", cfg.Orchestrator.ComplexTimeout).
		Msg("Orchestrator settings reloaded")
}

func runServe(cmd *cobra.Command, args []string) error {
	cliCtx, err := mustCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config
	log := cliCtx.Log()

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Gateway.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Gateway.Host = host
	}

	a, err := newApp(cliCtx)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(gctx) })
	if a.monitor != nil {
		g.Go(func() error { return a.monitor.Run(gctx) })
	}
	watcher, err := config.NewWatcher(cliCtx.ConfigPath, a.applyConfig)
	if err != nil {
		log.Warn().Err(err).Str("path", cliCtx.ConfigPath).Msg("Config hot reload disabled")
	} else {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	log.Info().
		Str("address", "http://"+a.server.Addr()).
		Str("backend", cfg.Backend.Kind).
		Msg("Brainbox server started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Server error")
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
