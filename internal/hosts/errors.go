package hosts

import "errors"

var (
	// ErrNoHosts is returned when a registry is configured with an empty host list.
	ErrNoHosts = errors.New("hosts: at least one host is required")

	// ErrDuplicateHost is returned when the same name:port appears twice.
	ErrDuplicateHost = errors.New("hosts: duplicate host")
)
