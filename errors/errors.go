package errors

import "fmt"

var (
	// ErrForeignKey is returned when a message references a room that is not
	// present in the room directory. Writes failing this check mutate nothing.
	ErrForeignKey = fmt.Errorf("message references an unknown room")

	// ErrConstraintViolation is returned when a message with the same
	// (room, from, timestamp_utc) composite key already exists.
	ErrConstraintViolation = fmt.Errorf("message with this room, sender and timestamp already exists")

	// ErrMalformedFrame means the inbound frame could not be parsed at all.
	ErrMalformedFrame = fmt.Errorf("frame is not valid JSON")

	// ErrInvalidShape means the frame parsed but does not match the message schema.
	ErrInvalidShape = fmt.Errorf("frame does not match the message schema")
)
