// Command worker runs the worker-manager role of spec.md §4.3: a pool
// of task-dispatch workers connected to the proxy's backend, backed by
// the credential store, plus a management REP socket for status/
// shutdown. Grounded on original_source/src/vpoller/worker.py's
// __main__ block.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kubev2v/vsphere-proxy/internal/config"
	"github.com/kubev2v/vsphere-proxy/internal/worker"
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the vSphere proxy worker manager",
	Long: `worker connects a pool of workers to the proxy's backend,
each servicing vSphere task requests against the credential store's
enabled agents, and answers status/shutdown requests on its management
socket.`,
	RunE: runWorker,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("config", "", "Path to an ini config file (spec.md §6)")
	flags.String("mgmt", "", "Management REP bind endpoint (overrides config/default)")
	flags.String("proxy", "", "Broker backend connect endpoint (overrides config/default)")
	flags.String("db", "", "Credential store path (overrides config/default)")
	flags.String("helpers", "", "Comma-separated formatter helpers (overrides config/default)")
	flags.Int("concurrency", 0, "Number of workers (0 = number of CPUs, matching worker.py's default)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.Bool("log-json", true, "Emit structured JSON logs")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(viper.GetString("log-level"), viper.GetBool("log-json"))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()
	log := logger.Sugar().Named("cmd.worker")

	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mgmt") {
		cfg.Worker.Mgmt = viper.GetString("mgmt")
	}
	if cmd.Flags().Changed("proxy") {
		cfg.Worker.Proxy = viper.GetString("proxy")
	}
	if cmd.Flags().Changed("db") {
		cfg.Worker.DB = viper.GetString("db")
	}
	if cmd.Flags().Changed("helpers") {
		cfg.Worker.Helpers = viper.GetString("helpers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, err := worker.NewManager(ctx, cfg.Worker, viper.GetInt("concurrency"))
	if err != nil {
		return fmt.Errorf("start worker manager: %w", err)
	}
	defer mgr.Close()

	log.Infow("worker manager listening",
		"mgmt", cfg.Worker.Mgmt,
		"proxy", cfg.Worker.Proxy,
		"db", cfg.Worker.DB,
	)

	go func() {
		<-ctx.Done()
		mgr.Stop()
	}()

	mgr.Run()
	log.Infow("worker manager stopped")
	return nil
}

func newLogger(level string, jsonOutput bool) (*zap.Logger, error) {
	var zapCfg zap.Config
	if jsonOutput {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log-level %q: %w", level, err)
	}
	return zapCfg.Build()
}
