package db

import (
	"strings"

	"github.com/teranos/arbor/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database,
// typically by a snapshot publisher still running while the server shuts down.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed,
// either as a wrapped ErrDatabaseClosed or as a raw driver error. The driver's
// own error types cannot be wrapped at the source, hence the message match.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
