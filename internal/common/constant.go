package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// BearerPrefix precedes the token in an HTTP Authorization header.
const BearerPrefix = "Bearer "
