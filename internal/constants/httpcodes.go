// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file defines HTTP header names and values.
package constants

// HTTP Header Names
const (
	HeaderContentType           = "Content-Type"
	HeaderCacheControl          = "Cache-Control"
	HeaderAuthorization         = "Authorization"
	HeaderXRequestID            = "X-Request-ID"
	HeaderXContentTypeOptions   = "X-Content-Type-Options"
	HeaderXFrameOptions         = "X-Frame-Options"
	HeaderXXSSProtection        = "X-XSS-Protection"
	HeaderReferrerPolicy        = "Referrer-Policy"
	HeaderContentSecurityPolicy = "Content-Security-Policy"
	HeaderStrictTransport       = "Strict-Transport-Security"
	HeaderRetryAfter            = "Retry-After"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
)

// Security Header Values
const (
	ContentTypeOptionsNoSniff = "nosniff"
	FrameOptionsDeny          = "DENY"
	XSSProtectionBlock        = "1; mode=block"
	ReferrerPolicyStrictSame  = "strict-origin-when-cross-origin"
	CSPDefaultNone            = "default-src 'none'; frame-ancestors 'none'"
	HSTSOneYear               = "max-age=31536000; includeSubDomains"
	CacheControlNoStore       = "no-store"
)

// Authorization scheme prefix.
const BearerPrefix = "Bearer "
