// Command auxiliary runs the auxiliary service in front of object storage and the
// parameter store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/pflag"
	"github.com/tdeslauriers/tandem/internal/util"
	"github.com/tdeslauriers/tandem/pkg/auxiliary"
	"github.com/tdeslauriers/tandem/pkg/config"
	"github.com/tdeslauriers/tandem/pkg/connect"
	"github.com/tdeslauriers/tandem/pkg/gateway"
	"github.com/tdeslauriers/tandem/pkg/metrics"
)

func main() {

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	logger := slog.Default().
		With(slog.String(util.PackageKey, util.PackageMain)).
		With(slog.String(util.ComponentKey, util.ComponentAuxiliary)).
		With(slog.String(util.ServiceKey, util.ServiceAuxiliary))

	if err := run(); err != nil && !errors.Is(err, pflag.ErrHelp) {
		logger.Error("auxiliary service exited", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run() error {

	var port int
	var configFile string

	flags := pflag.NewFlagSet(util.ServiceAuxiliary, pflag.ContinueOnError)
	flags.IntVar(&port, "port", 0, fmt.Sprintf("listen port (default %s env or %d)", config.EnvPort, config.DefaultAuxPort))
	flags.StringVar(&configFile, "config", "", "optional yaml config file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(config.SvcDefinition{
		ServiceName: util.ServiceAuxiliary,
		DefaultPort: config.DefaultAuxPort,
		ConfigFile:  configFile,
		Port:        port,
		Requires:    config.Requires{Gateway: true},
	})
	if err != nil {
		return fmt.Errorf("failed to load %s config: %v", util.ServiceAuxiliary, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// credentials are resolved by the sdk chain: env, shared profile, workload identity
	awsCfg, err := gateway.NewAwsConfig(ctx, cfg.Aws.Region)
	if err != nil {
		return err
	}

	buckets, err := bucketLister(cfg, awsCfg)
	if err != nil {
		return err
	}

	m := metrics.New(util.ServiceAuxiliary, cfg.Version)
	svc := auxiliary.New(cfg.Version, buckets, gateway.NewSsmStore(awsCfg), m)

	var pki *connect.Pki
	if cfg.Certs.TlsEnabled() {
		pki = &connect.Pki{CertFile: *cfg.Certs.ServerCert, KeyFile: *cfg.Certs.ServerKey}
	}

	server, err := connect.NewServer(cfg.ServicePort, svc.Handler(), pki)
	if err != nil {
		return fmt.Errorf("failed to create %s server: %v", util.ServiceAuxiliary, err)
	}

	slog.Info("auxiliary service configured",
		slog.String("version", cfg.Version),
		slog.String("region", awsCfg.Region),
		slog.String("object_storage", string(cfg.ObjectStorage.Backend)))

	return server.Run(ctx)
}

// bucketLister picks the object storage backend: aws s3 unless minio is configured.
func bucketLister(cfg *config.Config, awsCfg aws.Config) (gateway.BucketLister, error) {

	if cfg.ObjectStorage.Backend != config.BackendMinio {
		return gateway.NewS3Lister(awsCfg), nil
	}

	return gateway.NewMinioLister(gateway.MinioConfig{
		Url:       cfg.ObjectStorage.Url,
		AccessKey: cfg.ObjectStorage.AccessKey,
		SecretKey: cfg.ObjectStorage.SecretKey,
		Secure:    cfg.ObjectStorage.Secure,
		Region:    awsCfg.Region,
	}, nil)
}
