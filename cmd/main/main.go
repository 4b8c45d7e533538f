// Command main runs the public main service, which forwards to the auxiliary service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/tdeslauriers/tandem/internal/util"
	"github.com/tdeslauriers/tandem/pkg/config"
	"github.com/tdeslauriers/tandem/pkg/connect"
	"github.com/tdeslauriers/tandem/pkg/facade"
	"github.com/tdeslauriers/tandem/pkg/metrics"
)

func main() {

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	logger := slog.Default().
		With(slog.String(util.PackageKey, util.PackageMain)).
		With(slog.String(util.ComponentKey, util.ComponentMain)).
		With(slog.String(util.ServiceKey, util.ServiceMain))

	if err := run(); err != nil && !errors.Is(err, pflag.ErrHelp) {
		logger.Error("main service exited", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run() error {

	var port int
	var configFile string

	flags := pflag.NewFlagSet(util.ServiceMain, pflag.ContinueOnError)
	flags.IntVar(&port, "port", 0, fmt.Sprintf("listen port (default %s env or %d)", config.EnvPort, config.DefaultMainPort))
	flags.StringVar(&configFile, "config", "", "optional yaml config file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(config.SvcDefinition{
		ServiceName: util.ServiceMain,
		DefaultPort: config.DefaultMainPort,
		ConfigFile:  configFile,
		Port:        port,
		Requires:    config.Requires{Auxiliary: true},
	})
	if err != nil {
		return fmt.Errorf("failed to load %s config: %v", util.ServiceMain, err)
	}

	client, err := connect.NewHttpClient(cfg.Certs.AuxiliaryCa)
	if err != nil {
		return fmt.Errorf("failed to create auxiliary client: %v", err)
	}

	m := metrics.New(util.ServiceMain, cfg.Version)
	aux := connect.NewForwarder(cfg.Auxiliary.Url, util.ServiceAuxiliary, client, m)

	var pki *connect.Pki
	if cfg.Certs.TlsEnabled() {
		pki = &connect.Pki{CertFile: *cfg.Certs.ServerCert, KeyFile: *cfg.Certs.ServerKey}
	}

	server, err := connect.NewServer(cfg.ServicePort, facade.New(cfg.Version, aux, m).Handler(), pki)
	if err != nil {
		return fmt.Errorf("failed to create %s server: %v", util.ServiceMain, err)
	}

	slog.Info("main service configured",
		slog.String("version", cfg.Version),
		slog.String("auxiliary_url", cfg.Auxiliary.Url))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
