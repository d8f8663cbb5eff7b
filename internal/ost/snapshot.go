package ost

import (
	"encoding/json"
	"fmt"
)

// Sequences holds the next id to assign per collection. Counters only grow,
// so an id is never handed out twice even after removals or purges.
type Sequences struct {
	Persons    uint32 `json:"persons"`
	Feeds      uint32 `json:"feeds"`
	Expulsions uint32 `json:"expulsions"`
	Events     uint32 `json:"events"`
}

// Snapshot is the flat, foreign-key based shape of the whole store. It is
// the unit every durable backend reads and writes.
type Snapshot struct {
	Persons    []Person             `json:"persons"`
	Feeds      []FeedingRecord      `json:"feeds"`
	Expulsions []ExpulsionRecord    `json:"expulsions"`
	Events     []GenericEventRecord `json:"events"`
	NextIDs    Sequences            `json:"next_ids"`
}

// EmptySnapshot returns a snapshot whose collections encode as [] rather
// than null.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Persons:    []Person{},
		Feeds:      []FeedingRecord{},
		Expulsions: []ExpulsionRecord{},
		Events:     []GenericEventRecord{},
	}
}

// EncodeSnapshot renders the snapshot as indented JSON.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	encoded, err := json.MarshalIndent(snapshot.normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ost: encode snapshot: %w", err)
	}
	return encoded, nil
}

// DecodeSnapshot parses the JSON produced by EncodeSnapshot. Files written
// before next_ids existed are accepted; their counters are derived from the
// highest stored ids.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("ost: decode snapshot: %w", err)
	}
	return snapshot.normalized(), nil
}

func (s Snapshot) normalized() Snapshot {
	if s.Persons == nil {
		s.Persons = []Person{}
	}
	if s.Feeds == nil {
		s.Feeds = []FeedingRecord{}
	}
	if s.Expulsions == nil {
		s.Expulsions = []ExpulsionRecord{}
	}
	if s.Events == nil {
		s.Events = []GenericEventRecord{}
	}
	for _, person := range s.Persons {
		s.NextIDs.Persons = max(s.NextIDs.Persons, person.ID+1)
	}
	for _, record := range s.Feeds {
		s.NextIDs.Feeds = max(s.NextIDs.Feeds, record.ID+1)
	}
	for _, record := range s.Expulsions {
		s.NextIDs.Expulsions = max(s.NextIDs.Expulsions, record.ID+1)
	}
	for _, record := range s.Events {
		s.NextIDs.Events = max(s.NextIDs.Events, record.ID+1)
	}
	return s
}

// clone copies every collection so the caller cannot alias engine state.
func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Persons:    append([]Person{}, s.Persons...),
		Feeds:      append([]FeedingRecord{}, s.Feeds...),
		Expulsions: append([]ExpulsionRecord{}, s.Expulsions...),
		Events:     append([]GenericEventRecord{}, s.Events...),
		NextIDs:    s.NextIDs,
	}
}
