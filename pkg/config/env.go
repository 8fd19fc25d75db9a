package config

const (
	EnvPrefix = "CHECKOUT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "CHECKOUT_APP_ENV"
	EnvPort      = "CHECKOUT_APP_PORT"
	EnvLogLvl    = "CHECKOUT_LOG_LEVEL"
	EnvLogFormat = "CHECKOUT_LOG_FORMAT"
	EnvDBDSN     = "CHECKOUT_DB_DSN"
	EnvDBHost    = "CHECKOUT_DB_HOST"
	EnvDBUser    = "CHECKOUT_DB_USER"
	EnvDBName    = "CHECKOUT_DB_NAME"
	EnvUseSQLite = "CHECKOUT_USE_SQLITE"

	EnvRedisURL = "CHECKOUT_REDIS_URL"

	EnvCORSAllowedOrigins = "CHECKOUT_CORS_ALLOWED_ORIGINS"

	EnvSessionTTL     = "CHECKOUT_SESSION_TTL"
	EnvSessionLockTTL = "CHECKOUT_SESSION_LOCK_TTL"

	EnvCheckoutAPIBaseURL = "CHECKOUT_API_BASE_URL"
	EnvCheckoutAPITimeout = "CHECKOUT_API_TIMEOUT"

	EnvStoreDeliveryMethodID = "CHECKOUT_DELIVERY_STORE_METHOD_ID"
	EnvEmailDeliveryMethodID = "CHECKOUT_DELIVERY_EMAIL_METHOD_ID"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
