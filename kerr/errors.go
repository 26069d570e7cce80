// Package kerr defines the sentinel errors shared across the build and
// serve phases, matching the fatal/non-fatal taxonomy.
package kerr

import "errors"

var (
	ErrInputNotFound   = errors.New("input catalog not found")
	ErrHeaderMalformed = errors.New("dbf header malformed")
	ErrRecordTruncated = errors.New("dbf record truncated")
	ErrAssetMissing    = errors.New("song asset missing")
	ErrWriteFailed     = errors.New("archive or index write failed")
	ErrQueryTooShort   = errors.New("query too short")
	ErrIndexNotLoaded  = errors.New("index not loaded")
	ErrBlobNotFound    = errors.New("blob not found")
)
