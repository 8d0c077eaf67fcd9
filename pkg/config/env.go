package config

const (
	EnvPrefix = "AQUADROP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	CartPolicyReplace = "replace"
	CartPolicyMerge   = "merge"
)

const (
	EnvAppEnv             = "AQUADROP_APP_ENV"
	EnvPort               = "AQUADROP_APP_PORT"
	EnvGCPProjectID       = "AQUADROP_GCP_PROJECT_ID"
	EnvSessionSecret      = "AQUADROP_SESSION_SECRET"
	EnvRedisURL           = "AQUADROP_REDIS_URL"
	EnvCartIdentityPolicy = "AQUADROP_CART_IDENTITY_POLICY"
	EnvFirestoreRetries   = "AQUADROP_FIRESTORE_RETRY_ATTEMPTS"
	EnvProfileCollections = "AQUADROP_FIRESTORE_PROFILE_COLLECTIONS"
)
