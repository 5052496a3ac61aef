package app

import "github.com/google/uuid"

// newSessionID returns a random UUIDv4 used as the session key and URL slug.
func newSessionID() string { return uuid.NewString() }

// ValidSessionID reports whether id looks like an ID issued by newSessionID.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
