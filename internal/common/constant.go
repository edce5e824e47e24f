package common

// AuthorizationHeaderName is the gRPC metadata key carrying the access token
// as "Bearer <jwt>".
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the access token in the authorization header.
const BearerPrefix = "Bearer "

// RefreshTokenBytes is the number of random bytes behind a refresh token.
// The hex-encoded token is twice as long.
const RefreshTokenBytes = 48
