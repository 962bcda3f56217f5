package domain

import (
	"encoding/json"

	"roomchat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// rawFrame mirrors the wire schema with pointer fields so a missing field is
// distinguishable from a zero value. Empty strings are legal message content.
type rawFrame struct {
	Room         *string `json:"room" validate:"required"`
	From         *string `json:"from" validate:"required"`
	TimestampUTC *int64  `json:"timestamp_utc" validate:"required"`
	Text         *string `json:"text" validate:"required"`
}

// DecodeFrame parses an inbound frame into a Message. It fails with
// errors.ErrMalformedFrame when the bytes are not JSON at all, and with
// errors.ErrInvalidShape when the JSON does not match the schema: a field is
// missing, room/from/text are not plain strings, or timestamp_utc is not a
// number. No field of the result is touched before the whole shape check passes.
func DecodeFrame(data []byte) (Message, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return Message{}, errors.ErrInvalidShape
		}
		return Message{}, errors.ErrMalformedFrame
	}
	if err := validate.Struct(raw); err != nil {
		return Message{}, errors.ErrInvalidShape
	}
	return Message{
		Room:         *raw.Room,
		From:         *raw.From,
		TimestampUTC: *raw.TimestampUTC,
		Text:         *raw.Text,
	}, nil
}
