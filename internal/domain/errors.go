package domain

import "errors"

// ErrInvalidIdentifier is returned when a composite product identifier
// cannot be decoded. A malformed id is a caller contract violation,
// not a transient condition.
var ErrInvalidIdentifier = errors.New("invalid composite identifier")

// ErrCatalogUnavailable is returned when every source failed and no
// cached data, fresh or stale, could be served. This is the only
// availability failure that reaches the transport layer; per-source
// failures degrade the result instead.
var ErrCatalogUnavailable = errors.New("catalog unavailable")
