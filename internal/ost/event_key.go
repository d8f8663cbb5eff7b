package ost

import (
	"encoding/json"
	"fmt"
)

// EntityKind names the collection a composite key points into.
type EntityKind string

const (
	// KindEvent addresses the generic event collection.
	KindEvent EntityKind = "Event"
	// KindExpulsion addresses the expulsion collection.
	KindExpulsion EntityKind = "Expulsion"
	// KindFeed addresses the feeding collection.
	KindFeed EntityKind = "Feed"
)

// ParseEntityKind validates a raw kind name.
func ParseEntityKind(raw string) (EntityKind, error) {
	switch EntityKind(raw) {
	case KindEvent, KindExpulsion, KindFeed:
		return EntityKind(raw), nil
	default:
		return "", fmt.Errorf("%w: entity kind %q", ErrInvalidKind, raw)
	}
}

// String returns the kind name.
func (k EntityKind) String() string {
	return string(k)
}

// UnmarshalJSON rejects unknown kinds.
func (k *EntityKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseEntityKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// EventKey is the composite key identifying any non-person entity. It is
// the only handle that stays valid across processes and backends.
type EventKey struct {
	Kind EntityKind `json:"t"`
	ID   uint32     `json:"id"`
}

// String renders the key as Kind/id.
func (k EventKey) String() string {
	return fmt.Sprintf("%s/%d", k.Kind, k.ID)
}
