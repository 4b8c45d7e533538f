package connect

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"time"
)

// NewHttpClient builds the single client a service reuses for upstream calls.
// Per-call deadlines come from the request context; the transport only bounds
// connection setup. A base64 pem CA, when given, is trusted in addition to the
// system pool.
func NewHttpClient(caPem *string) (*http.Client, error) {

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = ReadinessTimeout
	transport.MaxIdleConnsPerHost = 16

	if caPem != nil {
		tlsConfig, err := buildClientTls(*caPem)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{
		Transport: transport,
		// redirects are not part of the contract between the services
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 30 * time.Second,
	}, nil
}

func buildClientTls(caPem string) (*tls.Config, error) {

	ca, err := decodePem("ca cert", caPem)
	if err != nil {
		return nil, err
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("failed to get system cert pool: %v", err)
	}

	if ok := pool.AppendCertsFromPEM(ca); !ok {
		return nil, fmt.Errorf("failed to append additional ca cert to system cert pool")
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
