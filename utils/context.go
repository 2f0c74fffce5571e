package utils

type contextKey string

// Request scoped context keys set by the HTTP layer
const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	TimeoutKey   contextKey = "timeout"
	UserIDKey    contextKey = "user_id"
	UsernameKey  contextKey = "username"
)
