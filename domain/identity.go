package domain

import "time"

// Identity is the verified result of checking a bearer credential.
// It is never persisted; it only tags a live connection with its subject.
type Identity struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
}
