package common

// AuthorizationHeaderName carries the bearer access token on every
// authenticated request.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed back on every response so that client logs
// can be matched with server logs.
const RequestIDHeaderName = "X-Request-ID"

// ServiceName is reported by the health endpoint.
const ServiceName = "vaultsync"
