package domain

import "errors"

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("auth: missing token")
	// ErrMalformedToken indicates the token failed structural or signature checks.
	ErrMalformedToken = errors.New("auth: malformed token")
	// ErrTokenNotFoundOrExpired indicates the session store has no live row for the token.
	ErrTokenNotFoundOrExpired = errors.New("auth: token not found or expired")
	// ErrIdentityLookupFailed indicates the owning identity could not be loaded.
	ErrIdentityLookupFailed = errors.New("auth: identity lookup failed")
	// ErrPermissionDenied indicates the identity may not access the requested path.
	ErrPermissionDenied = errors.New("auth: permission denied")
	// ErrStoreUnavailable indicates a backing store failure.
	ErrStoreUnavailable = errors.New("auth: store unavailable")
)
