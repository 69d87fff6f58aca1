package extractor

import "errors"

// Error kinds, matched with errors.Is.
var (
	// ErrStoreOpen marks a chain store that could not be opened. Callers may retry.
	ErrStoreOpen = errors.New("open chain store")
	ErrStoreRead = errors.New("read chain store")
	ErrSinkWrite = errors.New("write rows")
)
