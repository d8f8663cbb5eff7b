package ost

import (
	"slices"
	"time"
)

// EventBase is the capability shared by feedings, expulsions and generic
// events. The set of implementations is closed: callers needing the
// concrete kind switch on the value type.
//
//	switch event := base.(type) {
//	case Feeding:
//	case Expulsion:
//	case GenericEvent:
//	}
type EventBase interface {
	PersonName() string
	IsPersonActive() bool
	OccurredAt() time.Time
	Summary() string
	Key() EventKey
	isEventBase()
}

type timestamped interface {
	OccurredAt() time.Time
}

// SortNewestFirst orders events or records by timestamp, descending. Equal
// timestamps keep their relative order.
func SortNewestFirst[E timestamped](events []E) {
	slices.SortStableFunc(events, func(a, b E) int {
		return b.OccurredAt().Compare(a.OccurredAt())
	})
}
