package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "autosales"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AUTOSALES_DB_DSN"
	EnvDBHost = "AUTOSALES_DB_HOST"
	EnvDBUser = "AUTOSALES_DB_USER"
	EnvDBName = "AUTOSALES_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
