package store

import "errors"

// Error kinds surfaced by the store. Handlers map these onto HTTP statuses;
// everything else is treated as internal.
var (
	// ErrRemoteUnavailable marks transient remote-store failures. Mutations
	// retry these before giving up.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrPermissionDenied is terminal and surfaced to the user.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound is terminal for point reads; listings treat it as empty.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName rejects a second playlist with an existing name.
	ErrDuplicateName = errors.New("playlist name already exists")
	// ErrValidation rejects malformed input before any remote call.
	ErrValidation = errors.New("invalid input")
)

// permanent reports whether an error must not be retried.
func permanent(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrValidation)
}
