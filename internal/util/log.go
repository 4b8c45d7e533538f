package util

const (
	ComponentKey        string = "component"
	ComponentMain       string = "main"
	ComponentAuxiliary  string = "auxiliary"
	ComponentForwarder  string = "forwarder"
	ComponentServer     string = "server"
	ComponentReadiness  string = "readiness"
	ComponentS3         string = "s3 bucket lister"
	ComponentMinio      string = "minio bucket lister"
	ComponentSsm        string = "ssm parameter store"
	ComponentConfigLoad string = "config loader"

	ServiceKey       string = "service"
	ServiceMain      string = "main"
	ServiceAuxiliary string = "auxiliary"

	PackageKey         string = "package"
	PackageMain        string = "main"
	PackageAuxiliary   string = "auxiliary"
	PackageFacade      string = "facade"
	PackageConnect     string = "connect"
	PackageConfig      string = "config"
	PackageDiagnostics string = "diagnostics"
	PackageGateway     string = "gateway"
)
