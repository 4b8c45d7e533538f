package connect

import (
	"encoding/base64"
	"fmt"
)

// Pki holds base64'd *.pem values: container env vars -> k8s secret.
type Pki struct {
	CertFile string
	KeyFile  string
	CaFiles  []string
}

func decodePem(name, value string) ([]byte, error) {
	pem, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("could not base64 decode %s: %v", name, err)
	}
	return pem, nil
}
