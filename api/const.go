package api

const (
	msgUnauthorized    = "Unauthorized"
	msgAdminRequired   = "Admin privileges required"
	msgMissingUserID   = "userDiscordId is required"
	msgMissingParams   = "Missing serviceId or userDiscordId"
	msgServiceNotFound = "Service not found"

	oauthSuccessPath = "/oauth-success"
	oauthErrorPath   = "/oauth-error"

	defaultLogLimit = 50
	maxLogLimit     = 500
)
