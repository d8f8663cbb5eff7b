package ost

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventKind enumerates generic event variants.
type EventKind string

const (
	EventBath        EventKind = "Bath"
	EventMedicine    EventKind = "Medicine"
	EventSleep       EventKind = "Sleep"
	EventAwake       EventKind = "Awake"
	EventNote        EventKind = "Note"
	EventTemperature EventKind = "Temperature"
)

// EventKinds lists every generic event variant.
var EventKinds = []EventKind{EventBath, EventMedicine, EventSleep, EventAwake, EventNote, EventTemperature}

// EventType is the payload of a generic event. Text is meaningful for
// Medicine and Note, Temperature for Temperature.
//
// On the wire, unit variants encode as a bare string ("Bath") and payload
// variants as a single-field object ({"Note":"slept well"}).
type EventType struct {
	Kind        EventKind
	Text        string
	Temperature float64
}

// Constructors for each variant.
func Bath() EventType                     { return EventType{Kind: EventBath} }
func Sleep() EventType                    { return EventType{Kind: EventSleep} }
func Awake() EventType                    { return EventType{Kind: EventAwake} }
func Medicine(name string) EventType      { return EventType{Kind: EventMedicine, Text: name} }
func Note(text string) EventType          { return EventType{Kind: EventNote, Text: text} }
func Temperature(value float64) EventType { return EventType{Kind: EventTemperature, Temperature: value} }

// String renders the variant for display.
func (e EventType) String() string {
	switch e.Kind {
	case EventMedicine:
		return "Medicine " + e.Text
	case EventNote:
		return "Note " + e.Text
	default:
		return string(e.Kind)
	}
}

// Validate reports ErrInvalidKind for a variant outside EventKinds, such as
// the zero value.
func (e EventType) Validate() error {
	switch e.Kind {
	case EventBath, EventSleep, EventAwake, EventMedicine, EventNote, EventTemperature:
		return nil
	default:
		return fmt.Errorf("%w: event kind %q", ErrInvalidKind, e.Kind)
	}
}

// MarshalJSON writes the externally tagged encoding.
func (e EventType) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventBath, EventSleep, EventAwake:
		return json.Marshal(string(e.Kind))
	case EventMedicine, EventNote:
		return json.Marshal(map[string]string{string(e.Kind): e.Text})
	case EventTemperature:
		return json.Marshal(map[string]float64{string(e.Kind): e.Temperature})
	default:
		return nil, e.Validate()
	}
}

// UnmarshalJSON reads the externally tagged encoding.
func (e *EventType) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		switch kind := EventKind(raw); kind {
		case EventBath, EventSleep, EventAwake:
			*e = EventType{Kind: kind}
			return nil
		default:
			return fmt.Errorf("%w: unit event kind %q", ErrInvalidKind, raw)
		}
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: event payload must have exactly one variant", ErrInvalidKind)
	}
	for rawKind, payload := range tagged {
		switch kind := EventKind(rawKind); kind {
		case EventMedicine, EventNote:
			var text string
			if err := json.Unmarshal(payload, &text); err != nil {
				return fmt.Errorf("ost: decode %s payload: %w", kind, err)
			}
			*e = EventType{Kind: kind, Text: text}
		case EventTemperature:
			var value float64
			if err := json.Unmarshal(payload, &value); err != nil {
				return fmt.Errorf("ost: decode %s payload: %w", kind, err)
			}
			*e = EventType{Kind: kind, Temperature: value}
		default:
			return fmt.Errorf("%w: event kind %q", ErrInvalidKind, rawKind)
		}
	}
	return nil
}

func (e EventType) summary() string {
	switch e.Kind {
	case EventMedicine:
		return fmt.Sprintf("Med: %q", e.Text)
	case EventNote:
		return fmt.Sprintf("Note: %q", e.Text)
	case EventTemperature:
		return "Temp: " + formatDecimal(e.Temperature)
	default:
		return string(e.Kind)
	}
}

// formatDecimal always keeps a fractional part, so 37 renders as 37.0.
func formatDecimal(value float64) string {
	formatted := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(formatted, ".eEnN") {
		formatted += ".0"
	}
	return formatted
}

// GenericEventRecord is the flat persistence shape of a generic event.
type GenericEventRecord struct {
	ID        uint32    `json:"id"`
	TimeStamp time.Time `json:"time_stamp"`
	PersonID  uint32    `json:"person_id"`
	Event     EventType `json:"event"`
}

// OccurredAt returns the record timestamp.
func (r GenericEventRecord) OccurredAt() time.Time {
	return r.TimeStamp
}

// GenericEvent is a generic event resolved against its person.
type GenericEvent struct {
	ID        uint32
	Event     EventType
	TimeStamp time.Time
	Person    Person
}

// Modify replaces the timestamp and payload.
func (g *GenericEvent) Modify(timeStamp time.Time, event EventType) {
	g.TimeStamp = timeStamp.UTC()
	g.Event = event
}

// Record flattens the event.
func (g GenericEvent) Record() GenericEventRecord {
	return GenericEventRecord{
		ID:        g.ID,
		TimeStamp: g.TimeStamp,
		PersonID:  g.Person.ID,
		Event:     g.Event,
	}
}

// Serialize encodes the flat record as JSON.
func (g GenericEvent) Serialize() string {
	return mustJSON(g.Record())
}

func (g GenericEvent) PersonName() string    { return g.Person.Name }
func (g GenericEvent) IsPersonActive() bool  { return g.Person.IsActive }
func (g GenericEvent) OccurredAt() time.Time { return g.TimeStamp }
func (g GenericEvent) Summary() string       { return g.Event.summary() }
func (g GenericEvent) Key() EventKey         { return EventKey{Kind: KindEvent, ID: g.ID} }
func (GenericEvent) isEventBase()            {}

// DecodeGenericEventRecord decodes a serialized generic event record.
func DecodeGenericEventRecord(payload string) (GenericEventRecord, error) {
	var record GenericEventRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return GenericEventRecord{}, fmt.Errorf("ost: decode event: %w", err)
	}
	return record, nil
}
