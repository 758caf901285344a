package gdelt

import "github.com/gdeltlab/gdelt-go/internal/gdelterr"

// Sentinel errors returned (wrapped) by the client. Match with errors.Is.
var (
	// ErrConfiguration: missing or invalid settings. Fatal at the call site.
	ErrConfiguration = gdelterr.ErrConfiguration

	// ErrValidation: a filter violates its contract. Fatal at the call site.
	ErrValidation = gdelterr.ErrValidation

	// ErrAPIUnavailable: the inventory or transport is unreachable.
	ErrAPIUnavailable = gdelterr.ErrAPIUnavailable

	// ErrAPI: an HTTP or BigQuery failure not otherwise classified.
	ErrAPI = gdelterr.ErrAPI

	// ErrRateLimited: the server signalled throttling.
	ErrRateLimited = gdelterr.ErrRateLimited

	// ErrDecode: an archive could not be decompressed.
	ErrDecode = gdelterr.ErrDecode

	// ErrParse: a malformed row or line.
	ErrParse = gdelterr.ErrParse

	// ErrSecurity: an off-allowlist URL or an over-cap decompression.
	ErrSecurity = gdelterr.ErrSecurity

	// ErrTimeout: a request exceeded its deadline.
	ErrTimeout = gdelterr.ErrTimeout
)
