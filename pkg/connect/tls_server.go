package connect

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tdeslauriers/tandem/internal/util"
)

// BuildServerTls builds a standard (not mutual) tls config from a base64 pem key pair.
func BuildServerTls(pki *Pki) (*tls.Config, error) {

	certPem, err := decodePem("cert file", pki.CertFile)
	if err != nil {
		return nil, err
	}
	keyPem, err := decodePem("key file", pki.KeyFile)
	if err != nil {
		return nil, err
	}

	cert, err := tls.X509KeyPair(certPem, keyPem)
	if err != nil {
		return nil, fmt.Errorf("could not parse x509 key pair: %v", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Server listens on all interfaces and shuts down gracefully when its context ends.
type Server struct {
	Addr      string // listens on port, eg, ":8000"
	Handler   http.Handler
	TlsConfig *tls.Config // nil serves plain http

	ShutdownTimeout time.Duration

	logger *slog.Logger
}

// NewServer creates a Server; pki may be nil for plain http.
func NewServer(addr string, handler http.Handler, pki *Pki) (*Server, error) {

	s := &Server{
		Addr:            addr,
		Handler:         handler,
		ShutdownTimeout: 10 * time.Second,

		logger: slog.Default().
			With(slog.String(util.PackageKey, util.PackageConnect)).
			With(slog.String(util.ComponentKey, util.ComponentServer)),
	}

	if pki != nil {
		tlsConfig, err := BuildServerTls(pki)
		if err != nil {
			return nil, err
		}
		s.TlsConfig = tlsConfig
	}

	return s, nil
}

// Run blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler,
		TLSConfig:         s.TlsConfig,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server",
			slog.String("addr", s.Addr),
			slog.Bool("tls", s.TlsConfig != nil))

		var err error
		if s.TlsConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		errs <- err
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", slog.String("addr", s.Addr))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %v", err)
	}

	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
