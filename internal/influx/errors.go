package influx

import "errors"

// Sentinel errors for endpoint validation. These are returned before any
// host is contacted.
var (
	// ErrDatabaseRequired indicates neither the call nor the configuration
	// named a database.
	ErrDatabaseRequired = errors.New("influx: database is required")

	// ErrNoPoints indicates a write with nothing to write.
	ErrNoPoints = errors.New("influx: no points to write")

	// ErrNoFields indicates a point without any field values.
	ErrNoFields = errors.New("influx: point has no fields")

	// ErrQueryRequired indicates an empty or whitespace-only query.
	ErrQueryRequired = errors.New("influx: query is required")

	// ErrEmptyName indicates an empty identifier (database, user, measurement).
	ErrEmptyName = errors.New("influx: name must not be empty")
)
