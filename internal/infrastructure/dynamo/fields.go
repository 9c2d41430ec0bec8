package dynamo

// DynamoDB attribute names used in update expressions across repos.
// Constants prevent silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldUserID           = "user_id"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)
