package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// BearerPrefix precedes the access token in the HTTP Authorization header.
const BearerPrefix = "Bearer "

// AccessTokenCacheKey is the key under which the client credential cache
// stores the last access token.
const AccessTokenCacheKey = "access_token"
