package utils

import (
	"time"
)

// Request handling constants
const (
	// RequestTimeout bounds the work a single API request may do
	RequestTimeout = 30 * time.Second

	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Role names seeded by the initial migration
const (
	RoleMember    = "Member"
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
)

// Media constants
const (
	// PhotoKeyPrefix is the object key prefix for uploaded photos
	PhotoKeyPrefix = "photos/"
)

// Cache keys
const (
	TagListCacheKey = "photo-moderation:tags:all"
	TagListCacheTTL = 10 * time.Minute
)

// Fiber locals set by the auth middleware
const (
	LocalsUserID      = "user_id"
	LocalsUsername    = "username"
	LocalsTokenClaims = "token_claims"
)
