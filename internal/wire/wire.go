// Package wire holds the JSON shapes shared by the HTTP server and the remote
// proxy: route paths, request arguments and the reply envelopes.
//
// Replies come in three shapes. Lists are JSON arrays of serialized entity
// strings. Key lookups are JSON null or a JSON string. Mutations are a result
// envelope, {"Ok":value} or {"Err":"message"}.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedReply indicates a reply that matches none of the envelopes.
var ErrMalformedReply = errors.New("wire: malformed reply")

// RemoteError carries the message of an {"Err":...} reply unchanged.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Ok encodes a successful result. A nil value encodes as {"Ok":null}.
func Ok(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return Err(fmt.Errorf("encode reply: %w", err))
	}
	return `{"Ok":` + string(encoded) + `}`
}

// Err encodes a failed result from the error message.
func Err(err error) string {
	encoded, _ := json.Marshal(map[string]string{"Err": err.Error()})
	return string(encoded)
}

// DecodeResult unpacks a result envelope. The Ok value is decoded into value
// when value is non-nil. An Err envelope is returned as *RemoteError.
func DecodeResult(payload string, value any) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if raw, ok := envelope["Err"]; ok {
		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedReply, err)
		}
		return &RemoteError{Message: message}
	}
	raw, ok := envelope["Ok"]
	if !ok {
		return fmt.Errorf("%w: neither Ok nor Err", ErrMalformedReply)
	}
	if value == nil {
		return nil
	}
	if err := json.Unmarshal(raw, value); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

// Some encodes a present optional string.
func Some(serialized string) string {
	encoded, _ := json.Marshal(serialized)
	return string(encoded)
}

// None encodes an absent optional.
func None() string {
	return "null"
}

// DecodeOption unpacks a null-or-string reply.
func DecodeOption(payload string) (string, bool, error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if bytes.Equal(trimmed, []byte("null")) {
		return "", false, nil
	}
	var serialized string
	if err := json.Unmarshal(trimmed, &serialized); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return serialized, true, nil
}

// List encodes serialized entities as a JSON array of strings.
func List(serialized []string) string {
	if serialized == nil {
		serialized = []string{}
	}
	encoded, _ := json.Marshal(serialized)
	return string(encoded)
}

// DecodeList unpacks a JSON array of serialized entities.
func DecodeList(payload string) ([]string, error) {
	var serialized []string
	if err := json.Unmarshal([]byte(payload), &serialized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return serialized, nil
}
