package sqlite

import (
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

type personRow struct {
	RowID    uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	ID       uint32 `gorm:"column:id;not null;uniqueIndex"`
	Name     string `gorm:"column:name;not null"`
	IsActive bool   `gorm:"column:is_active;not null"`
}

func (personRow) TableName() string {
	return "persons"
}

type feedingRow struct {
	RowID       uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	ID          uint32 `gorm:"column:id;not null;uniqueIndex"`
	BreastMilk  uint32 `gorm:"column:breast_milk;not null"`
	Formula     uint32 `gorm:"column:formula;not null"`
	Solids      uint32 `gorm:"column:solids;not null"`
	TimeStampNs int64  `gorm:"column:time_stamp_ns;not null;index"`
	PersonID    uint32 `gorm:"column:person_id;not null;index"`
}

func (feedingRow) TableName() string {
	return "feedings"
}

type expulsionRow struct {
	RowID       uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	ID          uint32 `gorm:"column:id;not null;uniqueIndex"`
	Degree      string `gorm:"column:degree;size:32;not null"`
	TimeStampNs int64  `gorm:"column:time_stamp_ns;not null;index"`
	PersonID    uint32 `gorm:"column:person_id;not null;index"`
}

func (expulsionRow) TableName() string {
	return "expulsions"
}

type eventRow struct {
	RowID       uint64  `gorm:"column:row_id;primaryKey;autoIncrement"`
	ID          uint32  `gorm:"column:id;not null;uniqueIndex"`
	Kind        string  `gorm:"column:kind;size:32;not null"`
	Text        string  `gorm:"column:text"`
	Temperature float64 `gorm:"column:temperature"`
	TimeStampNs int64   `gorm:"column:time_stamp_ns;not null;index"`
	PersonID    uint32  `gorm:"column:person_id;not null;index"`
}

func (eventRow) TableName() string {
	return "events"
}

type sequenceRow struct {
	Name string `gorm:"column:name;primaryKey;size:32;not null"`
	Next uint32 `gorm:"column:next_id;not null"`
}

func (sequenceRow) TableName() string {
	return "sequences"
}

const (
	sequencePersons    = "persons"
	sequenceFeeds      = "feeds"
	sequenceExpulsions = "expulsions"
	sequenceEvents     = "events"
)

func fromUnixNano(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

func toSnapshot(persons []personRow, feedings []feedingRow, expulsions []expulsionRow, events []eventRow, sequences []sequenceRow) (ost.Snapshot, error) {
	snapshot := ost.EmptySnapshot()
	for _, row := range persons {
		snapshot.Persons = append(snapshot.Persons, ost.Person{ID: row.ID, Name: row.Name, IsActive: row.IsActive})
	}
	for _, row := range feedings {
		snapshot.Feeds = append(snapshot.Feeds, ost.FeedingRecord{
			ID:         row.ID,
			BreastMilk: row.BreastMilk,
			Formula:    row.Formula,
			Solids:     row.Solids,
			TimeStamp:  fromUnixNano(row.TimeStampNs),
			PersonID:   row.PersonID,
		})
	}
	for _, row := range expulsions {
		degree, err := ost.ParseExpulsionDegree(row.Degree)
		if err != nil {
			return ost.Snapshot{}, err
		}
		snapshot.Expulsions = append(snapshot.Expulsions, ost.ExpulsionRecord{
			ID:        row.ID,
			Degree:    degree,
			TimeStamp: fromUnixNano(row.TimeStampNs),
			PersonID:  row.PersonID,
		})
	}
	for _, row := range events {
		event, err := eventType(row)
		if err != nil {
			return ost.Snapshot{}, err
		}
		snapshot.Events = append(snapshot.Events, ost.GenericEventRecord{
			ID:        row.ID,
			TimeStamp: fromUnixNano(row.TimeStampNs),
			PersonID:  row.PersonID,
			Event:     event,
		})
	}
	for _, row := range sequences {
		switch row.Name {
		case sequencePersons:
			snapshot.NextIDs.Persons = row.Next
		case sequenceFeeds:
			snapshot.NextIDs.Feeds = row.Next
		case sequenceExpulsions:
			snapshot.NextIDs.Expulsions = row.Next
		case sequenceEvents:
			snapshot.NextIDs.Events = row.Next
		}
	}
	return snapshot, nil
}

func eventType(row eventRow) (ost.EventType, error) {
	switch kind := ost.EventKind(row.Kind); kind {
	case ost.EventBath:
		return ost.Bath(), nil
	case ost.EventSleep:
		return ost.Sleep(), nil
	case ost.EventAwake:
		return ost.Awake(), nil
	case ost.EventMedicine:
		return ost.Medicine(row.Text), nil
	case ost.EventNote:
		return ost.Note(row.Text), nil
	case ost.EventTemperature:
		return ost.Temperature(row.Temperature), nil
	default:
		return ost.EventType{}, fmt.Errorf("%w: stored event kind %q", ost.ErrInvalidKind, row.Kind)
	}
}

type tableRows struct {
	persons    []personRow
	feedings   []feedingRow
	expulsions []expulsionRow
	events     []eventRow
	sequences  []sequenceRow
}

func fromSnapshot(snapshot ost.Snapshot) tableRows {
	rows := tableRows{
		sequences: []sequenceRow{
			{Name: sequencePersons, Next: snapshot.NextIDs.Persons},
			{Name: sequenceFeeds, Next: snapshot.NextIDs.Feeds},
			{Name: sequenceExpulsions, Next: snapshot.NextIDs.Expulsions},
			{Name: sequenceEvents, Next: snapshot.NextIDs.Events},
		},
	}
	for _, person := range snapshot.Persons {
		rows.persons = append(rows.persons, personRow{ID: person.ID, Name: person.Name, IsActive: person.IsActive})
	}
	for _, record := range snapshot.Feeds {
		rows.feedings = append(rows.feedings, feedingRow{
			ID:          record.ID,
			BreastMilk:  record.BreastMilk,
			Formula:     record.Formula,
			Solids:      record.Solids,
			TimeStampNs: record.TimeStamp.UnixNano(),
			PersonID:    record.PersonID,
		})
	}
	for _, record := range snapshot.Expulsions {
		rows.expulsions = append(rows.expulsions, expulsionRow{
			ID:          record.ID,
			Degree:      string(record.Degree),
			TimeStampNs: record.TimeStamp.UnixNano(),
			PersonID:    record.PersonID,
		})
	}
	for _, record := range snapshot.Events {
		rows.events = append(rows.events, eventRow{
			ID:          record.ID,
			Kind:        string(record.Event.Kind),
			Text:        record.Event.Text,
			Temperature: record.Event.Temperature,
			TimeStampNs: record.TimeStamp.UnixNano(),
			PersonID:    record.PersonID,
		})
	}
	return rows
}
