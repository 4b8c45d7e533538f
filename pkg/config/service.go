package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tdeslauriers/tandem/internal/util"
	"gopkg.in/yaml.v3"
)

// Load builds a service's Config from, lowest precedence first: the yaml config file,
// a .env file in the working directory, and the process environment.
func Load(def SvcDefinition) (*Config, error) {

	if def.ServiceName == "" {
		return nil, fmt.Errorf("service name must be provided to definitions, cannot be empty")
	}

	logger := slog.Default().
		With(slog.String(util.PackageKey, util.PackageConfig)).
		With(slog.String(util.ComponentKey, util.ComponentConfigLoad)).
		With(slog.String(util.ServiceKey, def.ServiceName))

	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %v", err)
		}
	} else {
		logger.Info("loaded environment from .env file")
	}

	// config file path: definition (flag) wins over env
	path := def.ConfigFile
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	src, err := newSource(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Info("loaded config file", slog.String("config_file", path))
	}

	config := &Config{
		ServiceName: def.ServiceName,
		Version:     src.getOr(EnvVersion, DefaultVersion),
	}

	// service port
	port := src.getOr(EnvPort, strconv.Itoa(def.DefaultPort))
	if def.Port != 0 {
		port = strconv.Itoa(def.Port)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return nil, fmt.Errorf("%s must be a port number between 1 and 65535, got '%s'", EnvPort, port)
	}
	config.ServicePort = fmt.Sprintf(":%s", port)

	config.readCerts(src, def)

	if def.Requires.Auxiliary {
		config.Auxiliary.Url = strings.TrimRight(src.getOr(EnvAuxiliaryUrl, DefaultAuxiliaryUrl), "/")
	}

	if def.Requires.Gateway {
		if err := config.gatewayEnvVars(src); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (config *Config) readCerts(src *source, def SvcDefinition) {

	// server key pair: tls is only enabled when both are present
	if cert, ok := src.lookup(EnvServerCert); ok && cert != "" {
		config.Certs.ServerCert = &cert
	}
	if key, ok := src.lookup(EnvServerKey); ok && key != "" {
		config.Certs.ServerKey = &key
	}

	// ca of the auxiliary service's certificate
	if def.Requires.Auxiliary {
		if ca, ok := src.lookup(EnvAuxiliaryCaCert); ok && ca != "" {
			config.Certs.AuxiliaryCa = &ca
		}
	}
}

// gatewayEnvVars is a helper function that reads in the cloud gateway settings
func (config *Config) gatewayEnvVars(src *source) error {

	if region, ok := src.lookup(EnvAwsRegion); ok {
		config.Aws.Region = region
	}

	backend := StorageBackend(strings.ToLower(src.getOr(EnvStorageBackend, string(BackendS3))))
	switch backend {
	case BackendS3:
		config.ObjectStorage.Backend = BackendS3
		return nil
	case BackendMinio:
		config.ObjectStorage.Backend = BackendMinio
	default:
		return fmt.Errorf("%s must be '%s' or '%s', got '%s'", EnvStorageBackend, BackendS3, BackendMinio, backend)
	}

	// minio requires an explicit endpoint and static credentials
	url, ok := src.lookup(EnvStorageUrl)
	if !ok || url == "" {
		return fmt.Errorf("%s not set", EnvStorageUrl)
	}
	config.ObjectStorage.Url = url

	accessKey, ok := src.lookup(EnvStorageAccessKey)
	if !ok {
		return fmt.Errorf("%s not set", EnvStorageAccessKey)
	}
	config.ObjectStorage.AccessKey = accessKey

	secretKey, ok := src.lookup(EnvStorageSecretKey)
	if !ok {
		return fmt.Errorf("%s not set", EnvStorageSecretKey)
	}
	config.ObjectStorage.SecretKey = secretKey

	secure := src.getOr(EnvStorageSecure, "true")
	b, err := strconv.ParseBool(secure)
	if err != nil {
		return fmt.Errorf("%s must be a boolean, got '%s'", EnvStorageSecure, secure)
	}
	config.ObjectStorage.Secure = b

	return nil
}

// source resolves a key against the environment first, then the config file.
// An empty environment variable counts as unset.
type source struct {
	file map[string]string
}

func newSource(path string) (*source, error) {

	src := &source{file: map[string]string{}}
	if path == "" {
		return src, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %v", path, err)
	}

	if err := yaml.Unmarshal(data, &src.file); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %v", path, err)
	}

	return src, nil
}

func (s *source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok
}

// getOr treats an empty value like a missing one
func (s *source) getOr(key, fallback string) string {
	if v, ok := s.lookup(key); ok && v != "" {
		return v
	}
	return fallback
}
