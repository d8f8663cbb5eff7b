package ost

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSummaries(t *testing.T) {
	person := NewPerson(0, "Anna")
	testCases := []struct {
		name  string
		event EventBase
		want  string
	}{
		{name: "feeding", event: Feeding{BreastMilk: 11, Formula: 22, Solids: 33, Person: person}, want: "BM: 11 F: 22 Solids: 33"},
		{name: "expulsion", event: Expulsion{Degree: DegreeShart, Person: person}, want: "Shart"},
		{name: "bath", event: GenericEvent{Event: Bath(), Person: person}, want: "Bath"},
		{name: "medicine", event: GenericEvent{Event: Medicine("ibuprofen"), Person: person}, want: `Med: "ibuprofen"`},
		{name: "note", event: GenericEvent{Event: Note("fussy"), Person: person}, want: `Note: "fussy"`},
		{name: "temperature", event: GenericEvent{Event: Temperature(37.5), Person: person}, want: "Temp: 37.5"},
		{name: "whole temperature", event: GenericEvent{Event: Temperature(38), Person: person}, want: "Temp: 38.0"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Summary(); got != testCase.want {
				t.Fatalf("expected %q, got %q", testCase.want, got)
			}
		})
	}
}

func TestEventTypeWireFormat(t *testing.T) {
	testCases := []struct {
		event EventType
		want  string
	}{
		{event: Bath(), want: `"Bath"`},
		{event: Sleep(), want: `"Sleep"`},
		{event: Awake(), want: `"Awake"`},
		{event: Medicine("tylenol"), want: `{"Medicine":"tylenol"}`},
		{event: Note("hi"), want: `{"Note":"hi"}`},
		{event: Temperature(37.2), want: `{"Temperature":37.2}`},
	}
	for _, testCase := range testCases {
		encoded, err := json.Marshal(testCase.event)
		if err != nil {
			t.Fatalf("marshal %v: %v", testCase.event, err)
		}
		if string(encoded) != testCase.want {
			t.Fatalf("expected %s, got %s", testCase.want, encoded)
		}
		var decoded EventType
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", encoded, err)
		}
		if decoded != testCase.event {
			t.Fatalf("expected %+v, got %+v", testCase.event, decoded)
		}
	}
}

func TestEventTypeRejectsUnknownVariants(t *testing.T) {
	for _, payload := range []string{`"Dance"`, `{"Dance":"x"}`, `{"Note":"a","Medicine":"b"}`, `"Medicine"`} {
		var decoded EventType
		if err := json.Unmarshal([]byte(payload), &decoded); !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("expected invalid kind for %s, got %v", payload, err)
		}
	}
}

func TestEventKeyWireFormat(t *testing.T) {
	encoded, err := json.Marshal(EventKey{Kind: KindFeed, ID: 3})
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	if string(encoded) != `{"t":"Feed","id":3}` {
		t.Fatalf("unexpected key encoding %s", encoded)
	}

	var key EventKey
	if err := json.Unmarshal([]byte(`{"t":"Bogus","id":1}`), &key); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected invalid kind, got %v", err)
	}
}

func TestSerializedRecordsCarryPersonID(t *testing.T) {
	stamp := time.Date(2024, time.May, 6, 7, 8, 9, 0, time.UTC)
	feeding := Feeding{ID: 4, BreastMilk: 1, Formula: 2, Solids: 3, TimeStamp: stamp, Person: NewPerson(8, "Anna")}

	serialized := feeding.Serialize()
	if !strings.Contains(serialized, `"person_id":8`) || !strings.Contains(serialized, `"time_stamp":"2024-05-06T07:08:09Z"`) {
		t.Fatalf("unexpected serialized feeding %s", serialized)
	}
	record, err := DecodeFeedingRecord(serialized)
	if err != nil {
		t.Fatalf("decode feeding: %v", err)
	}
	if record != feeding.Record() {
		t.Fatalf("expected %+v, got %+v", feeding.Record(), record)
	}

	person, err := DeserializePerson(NewPerson(8, "Anna").Serialize())
	if err != nil {
		t.Fatalf("deserialize person: %v", err)
	}
	if person.Name != "Anna" || !person.IsActive || person.ID != 8 {
		t.Fatalf("unexpected person %+v", person)
	}
}

func TestDecodeSnapshotNormalizesLegacyFiles(t *testing.T) {
	snapshot, err := DecodeSnapshot([]byte(`{"persons":[{"id":2,"name":"Anna","is_active":true}],"feeds":null}`))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.Feeds == nil || snapshot.Expulsions == nil || snapshot.Events == nil {
		t.Fatalf("expected empty collections, got %+v", snapshot)
	}
	if snapshot.NextIDs.Persons != 3 {
		t.Fatalf("expected person counter 3, got %d", snapshot.NextIDs.Persons)
	}

	encoded, err := EncodeSnapshot(EmptySnapshot())
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	if !strings.Contains(string(encoded), `"feeds": []`) {
		t.Fatalf("expected empty arrays in encoding, got %s", encoded)
	}
}

func TestSortNewestFirstIsStable(t *testing.T) {
	stamp := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
	records := []FeedingRecord{
		{ID: 0, TimeStamp: stamp},
		{ID: 1, TimeStamp: stamp.Add(time.Hour)},
		{ID: 2, TimeStamp: stamp},
	}
	SortNewestFirst(records)
	if records[0].ID != 1 || records[1].ID != 0 || records[2].ID != 2 {
		t.Fatalf("unexpected order %+v", records)
	}
}
