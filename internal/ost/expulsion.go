package ost

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpulsionDegree grades a diaper event.
type ExpulsionDegree string

const (
	DegreeClean      ExpulsionDegree = "Clean"
	DegreePee        ExpulsionDegree = "Pee"
	DegreeShart      ExpulsionDegree = "Shart"
	DegreePoopies    ExpulsionDegree = "Poopies"
	DegreePooplosion ExpulsionDegree = "Pooplosion"
)

// ExpulsionDegrees lists every degree in severity order.
var ExpulsionDegrees = []ExpulsionDegree{DegreeClean, DegreePee, DegreeShart, DegreePoopies, DegreePooplosion}

// ParseExpulsionDegree validates a raw degree name.
func ParseExpulsionDegree(raw string) (ExpulsionDegree, error) {
	for _, degree := range ExpulsionDegrees {
		if string(degree) == raw {
			return degree, nil
		}
	}
	return "", fmt.Errorf("%w: expulsion degree %q", ErrInvalidKind, raw)
}

// UnmarshalJSON rejects unknown degrees.
func (d *ExpulsionDegree) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseExpulsionDegree(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ExpulsionRecord is the flat persistence shape of an expulsion.
type ExpulsionRecord struct {
	ID        uint32          `json:"id"`
	Degree    ExpulsionDegree `json:"degree"`
	TimeStamp time.Time       `json:"time_stamp"`
	PersonID  uint32          `json:"person_id"`
}

// OccurredAt returns the record timestamp.
func (r ExpulsionRecord) OccurredAt() time.Time {
	return r.TimeStamp
}

// Expulsion is an expulsion resolved against its person.
type Expulsion struct {
	ID        uint32
	Degree    ExpulsionDegree
	TimeStamp time.Time
	Person    Person
}

// Modify replaces the degree and timestamp.
func (e *Expulsion) Modify(degree ExpulsionDegree, timeStamp time.Time) {
	e.Degree = degree
	e.TimeStamp = timeStamp.UTC()
}

// Record flattens the expulsion.
func (e Expulsion) Record() ExpulsionRecord {
	return ExpulsionRecord{
		ID:        e.ID,
		Degree:    e.Degree,
		TimeStamp: e.TimeStamp,
		PersonID:  e.Person.ID,
	}
}

// Serialize encodes the flat record as JSON.
func (e Expulsion) Serialize() string {
	return mustJSON(e.Record())
}

func (e Expulsion) PersonName() string    { return e.Person.Name }
func (e Expulsion) IsPersonActive() bool  { return e.Person.IsActive }
func (e Expulsion) OccurredAt() time.Time { return e.TimeStamp }
func (e Expulsion) Summary() string       { return string(e.Degree) }
func (e Expulsion) Key() EventKey         { return EventKey{Kind: KindExpulsion, ID: e.ID} }
func (Expulsion) isEventBase()            {}

// DecodeExpulsionRecord decodes a serialized expulsion record.
func DecodeExpulsionRecord(payload string) (ExpulsionRecord, error) {
	var record ExpulsionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return ExpulsionRecord{}, fmt.Errorf("ost: decode expulsion: %w", err)
	}
	return record, nil
}
