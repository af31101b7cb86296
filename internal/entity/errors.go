package entity

import "errors"

// Domain errors for word items and the stores that hold them.
var (
	ErrInvalidWordItem    = errors.New("invalid word item")
	ErrWordItemNotFound   = errors.New("word item not found")
	ErrUnknownDataType    = errors.New("unknown data type")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrSerialization      = errors.New("serialization failed")
	ErrConflictingOptions = errors.New("onlyLocal and onlyRemote are mutually exclusive")
	ErrSyncManagerClosed  = errors.New("sync manager closed")
)

// IsValidation reports whether err rejects a record before any store is touched.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidWordItem) || errors.Is(err, ErrUnknownDataType) || errors.Is(err, ErrConflictingOptions)
}
