// Package domain contains core concepts of the chat system.
// This file defines Message, the unit exchanged over the wire and persisted.
// Messages are immutable once stored; there is no update or delete.
package domain

// Message is the wire schema in both directions: a flat structure with no
// envelope, versioning or framing metadata. Within a room, the composite key
// (Room, From, TimestampUTC) identifies a message uniquely.
type Message struct {
	Room         string `json:"room"`
	From         string `json:"from"`
	TimestampUTC int64  `json:"timestamp_utc"`
	Text         string `json:"text"`
}
