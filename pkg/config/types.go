package config

// Config is read once at startup and treated as read-only afterwards.
type Config struct {
	ServiceName   string
	Version       string
	ServicePort   string // must have :8000 format with leading colon
	Certs         Certs
	Auxiliary     Auxiliary
	Aws           Aws
	ObjectStorage ObjectStorage
}

// Certs are base64'd *.pem values, as they arrive from container env vars.
type Certs struct {
	ServerCert *string
	ServerKey  *string

	AuxiliaryCa *string
}

// TlsEnabled reports whether both halves of the server key pair are present.
func (c Certs) TlsEnabled() bool {
	return c.ServerCert != nil && c.ServerKey != nil
}

type Auxiliary struct {
	Url string
}

type Aws struct {
	Region string // empty means the sdk default chain decides
}

type ObjectStorage struct {
	Backend   StorageBackend
	Url       string // host:port of an s3 compatible endpoint, minio only
	AccessKey string
	SecretKey string
	Secure    bool
}
