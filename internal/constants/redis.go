package constants

// Redis key prefixes.
const (
	// RedisTokenDenylistPrefix marks a JWT as revoked until its natural
	// expiry. Key: prefix + token signature.
	RedisTokenDenylistPrefix = "auth:denylist:"
)
