package ost

import (
	"encoding/json"
	"fmt"
	"time"
)

// FeedingRecord is the flat persistence shape of a feeding.
type FeedingRecord struct {
	ID         uint32    `json:"id"`
	BreastMilk uint32    `json:"breast_milk"`
	Formula    uint32    `json:"formula"`
	Solids     uint32    `json:"solids"`
	TimeStamp  time.Time `json:"time_stamp"`
	PersonID   uint32    `json:"person_id"`
}

// OccurredAt returns the record timestamp.
func (r FeedingRecord) OccurredAt() time.Time {
	return r.TimeStamp
}

// Feeding is a feeding resolved against its person.
type Feeding struct {
	ID         uint32
	BreastMilk uint32
	Formula    uint32
	Solids     uint32
	TimeStamp  time.Time
	Person     Person
}

// Modify replaces the mutable fields; identity is preserved.
func (f *Feeding) Modify(breastMilk, formula, solids uint32, timeStamp time.Time) {
	f.BreastMilk = breastMilk
	f.Formula = formula
	f.Solids = solids
	f.TimeStamp = timeStamp.UTC()
}

// Record flattens the feeding for persistence or transport.
func (f Feeding) Record() FeedingRecord {
	return FeedingRecord{
		ID:         f.ID,
		BreastMilk: f.BreastMilk,
		Formula:    f.Formula,
		Solids:     f.Solids,
		TimeStamp:  f.TimeStamp,
		PersonID:   f.Person.ID,
	}
}

// Serialize encodes the flat record as JSON.
func (f Feeding) Serialize() string {
	return mustJSON(f.Record())
}

func (f Feeding) PersonName() string    { return f.Person.Name }
func (f Feeding) IsPersonActive() bool  { return f.Person.IsActive }
func (f Feeding) OccurredAt() time.Time { return f.TimeStamp }
func (f Feeding) Key() EventKey         { return EventKey{Kind: KindFeed, ID: f.ID} }
func (Feeding) isEventBase()            {}

// Summary renders the quantities.
func (f Feeding) Summary() string {
	return fmt.Sprintf("BM: %d F: %d Solids: %d", f.BreastMilk, f.Formula, f.Solids)
}

// DecodeFeedingRecord decodes a serialized feeding record.
func DecodeFeedingRecord(payload string) (FeedingRecord, error) {
	var record FeedingRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return FeedingRecord{}, fmt.Errorf("ost: decode feeding: %w", err)
	}
	return record, nil
}
