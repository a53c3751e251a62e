// Command proxy runs the broker role of spec.md §4.2: a ROUTER/DEALER
// frame-forwarding loop between clients and workers, plus a management
// REP socket for status/shutdown. Grounded on
// original_source/src/vpoller/proxy.py's __main__ block and the cobra
// CLI shape used throughout the example pack.
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

	"github.com/kubev2v/vsphere-proxy/internal/broker"
	"github.com/kubev2v/vsphere-proxy/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run the vSphere proxy broker",
	Long: `proxy runs the broker role: it forwards task requests from
clients to workers and replies back, and answers status/shutdown
requests on its management socket.`,
	RunE: runProxy,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("config", "", "Path to an ini config file (spec.md §6)")
	flags.String("mgmt", "", "Management REP bind endpoint (overrides config/default)")
	flags.String("frontend", "", "Client-facing ROUTER bind endpoint (overrides config/default)")
	flags.String("backend", "", "Worker-facing DEALER bind endpoint (overrides config/default)")
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

func runProxy(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(viper.GetString("log-level"), viper.GetBool("log-json"))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()
	log := logger.Sugar().Named("cmd.proxy")

	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mgmt") {
		cfg.Proxy.Mgmt = viper.GetString("mgmt")
	}
	if cmd.Flags().Changed("frontend") {
		cfg.Proxy.Frontend = viper.GetString("frontend")
	}
	if cmd.Flags().Changed("backend") {
		cfg.Proxy.Backend = viper.GetString("backend")
	}

	p, err := broker.NewProxy(cfg.Proxy)
	if err != nil {
		return fmt.Errorf("start proxy: %w", err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("proxy listening",
		"mgmt", cfg.Proxy.Mgmt,
		"frontend", cfg.Proxy.Frontend,
		"backend", cfg.Proxy.Backend,
	)
	p.Run(ctx)
	log.Infow("proxy stopped")
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
