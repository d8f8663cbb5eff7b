package ost

import "fmt"

// ResolveFeeding attaches the referenced person to a feeding record.
func ResolveFeeding(record FeedingRecord, persons []Person) (Feeding, error) {
	person, ok := findPerson(persons, record.PersonID)
	if !ok {
		return Feeding{}, danglingError(KindFeed, record.ID, record.PersonID)
	}
	return Feeding{
		ID:         record.ID,
		BreastMilk: record.BreastMilk,
		Formula:    record.Formula,
		Solids:     record.Solids,
		TimeStamp:  record.TimeStamp,
		Person:     person,
	}, nil
}

// ResolveExpulsion attaches the referenced person to an expulsion record.
func ResolveExpulsion(record ExpulsionRecord, persons []Person) (Expulsion, error) {
	person, ok := findPerson(persons, record.PersonID)
	if !ok {
		return Expulsion{}, danglingError(KindExpulsion, record.ID, record.PersonID)
	}
	return Expulsion{
		ID:        record.ID,
		Degree:    record.Degree,
		TimeStamp: record.TimeStamp,
		Person:    person,
	}, nil
}

// ResolveGenericEvent attaches the referenced person to a generic event record.
func ResolveGenericEvent(record GenericEventRecord, persons []Person) (GenericEvent, error) {
	person, ok := findPerson(persons, record.PersonID)
	if !ok {
		return GenericEvent{}, danglingError(KindEvent, record.ID, record.PersonID)
	}
	return GenericEvent{
		ID:        record.ID,
		Event:     record.Event,
		TimeStamp: record.TimeStamp,
		Person:    person,
	}, nil
}

// ResolveFeedings resolves a list of feeding records, failing on the first
// dangling reference.
func ResolveFeedings(records []FeedingRecord, persons []Person) ([]Feeding, error) {
	return resolveAll(records, persons, ResolveFeeding)
}

// ResolveExpulsions resolves a list of expulsion records.
func ResolveExpulsions(records []ExpulsionRecord, persons []Person) ([]Expulsion, error) {
	return resolveAll(records, persons, ResolveExpulsion)
}

// ResolveGenericEvents resolves a list of generic event records.
func ResolveGenericEvents(records []GenericEventRecord, persons []Person) ([]GenericEvent, error) {
	return resolveAll(records, persons, ResolveGenericEvent)
}

// Validate checks that every record in the snapshot references a person
// present in the same snapshot.
func (s Snapshot) Validate() error {
	if _, err := ResolveFeedings(s.Feeds, s.Persons); err != nil {
		return err
	}
	if _, err := ResolveExpulsions(s.Expulsions, s.Persons); err != nil {
		return err
	}
	if _, err := ResolveGenericEvents(s.Events, s.Persons); err != nil {
		return err
	}
	return nil
}

func resolveAll[R any, E any](records []R, persons []Person, resolve func(R, []Person) (E, error)) ([]E, error) {
	output := make([]E, 0, len(records))
	for _, record := range records {
		resolved, err := resolve(record, persons)
		if err != nil {
			return nil, err
		}
		output = append(output, resolved)
	}
	return output, nil
}

func danglingError(kind EntityKind, id, personID uint32) error {
	return fmt.Errorf("%w: %s %d points to person %d", ErrDanglingPerson, kind, id, personID)
}
