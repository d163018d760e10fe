package config

const (
	EnvPrefix = "NESTFINDER"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "NESTFINDER_APP_ENV"
	EnvPort   = "NESTFINDER_APP_PORT"

	EnvDBDSN  = "NESTFINDER_DB_DSN"
	EnvDBHost = "NESTFINDER_DB_HOST"
	EnvDBUser = "NESTFINDER_DB_USER"
	EnvDBName = "NESTFINDER_DB_NAME"

	EnvRedisURL = "NESTFINDER_REDIS_URL"

	EnvJWTSecret              = "NESTFINDER_JWT_SECRET"
	EnvJWTIssuer              = "NESTFINDER_JWT_ISSUER"
	EnvJWTExpMins             = "NESTFINDER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "NESTFINDER_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID      = "NESTFINDER_GCP_PROJECT_ID"
	EnvGCSBucket         = "NESTFINDER_GCS_BUCKET_NAME"
	EnvGCSUploadExpiry   = "NESTFINDER_GCS_UPLOAD_URL_EXPIRY"
	EnvGCSDownloadExpiry = "NESTFINDER_GCS_DOWNLOAD_URL_EXPIRY"

	EnvPubSubReservationTopic = "NESTFINDER_PUBSUB_RESERVATION_TOPIC"
	EnvPubSubReservationSub   = "NESTFINDER_PUBSUB_RESERVATION_SUBSCRIPTION"
	EnvPubSubAlertTopic       = "NESTFINDER_PUBSUB_ALERT_TOPIC"
	EnvPubSubAlertSub         = "NESTFINDER_PUBSUB_ALERT_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
