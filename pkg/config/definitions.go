package config

// SvcDefinition declares which configuration groups a service needs.
// Load only reads (and only fails on) the groups a definition requires.
type SvcDefinition struct {
	ServiceName string
	DefaultPort int
	ConfigFile  string // optional yaml file, usually from the --config flag
	Port        int    // from the --port flag; zero defers to env, file, then DefaultPort
	Requires    Requires
}

type Requires struct {
	Auxiliary bool // base url of the auxiliary service
	Gateway   bool // aws region and object storage backend
}

const (
	DefaultVersion      = "unknown"
	DefaultAuxiliaryUrl = "http://auxiliary-service.auxiliary-service.svc"
	DefaultMainPort     = 8000
	DefaultAuxPort      = 8001
)

// recognized environment keys; the yaml config file uses the same names.
const (
	EnvVersion          = "VERSION"
	EnvPort             = "PORT"
	EnvConfigFile       = "CONFIG_FILE"
	EnvAuxiliaryUrl     = "AUXILIARY_URL"
	EnvAuxiliaryCaCert  = "AUXILIARY_CA_CERT"
	EnvServerCert       = "SERVER_CERT"
	EnvServerKey        = "SERVER_KEY"
	EnvAwsRegion        = "AWS_REGION"
	EnvStorageBackend   = "OBJECT_STORAGE_BACKEND"
	EnvStorageUrl       = "OBJECT_STORAGE_URL"
	EnvStorageAccessKey = "OBJECT_STORAGE_ACCESS_KEY"
	EnvStorageSecretKey = "OBJECT_STORAGE_SECRET_KEY"
	EnvStorageSecure    = "OBJECT_STORAGE_SECURE"
)

type StorageBackend string

const (
	BackendS3    StorageBackend = "s3"
	BackendMinio StorageBackend = "minio"
)
