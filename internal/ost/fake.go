package ost

import (
	"fmt"
	"math"
	"time"
)

const (
	fakeQuantityMax  = 149
	fakeDaysBack     = 364
	fakeHourJitter   = 22
	fakeMinuteJitter = 55
	fakeNameAttempts = 8
)

// AddFakePersons appends count active persons with generated unique names.
func (e *Engine) AddFakePersons(count uint32) error {
	for range count {
		person := NewPerson(e.nextIDs.Persons, e.fakeName())
		e.nextIDs.Persons++
		e.persons = append(e.persons, person)
	}
	return e.commit("add_fake_persons")
}

// AddFakeFeedings appends count feedings for random persons. It panics with
// ErrNoPersons when no person exists.
func (e *Engine) AddFakeFeedings(count uint32) error {
	e.requireFakeTargets()
	for range count {
		e.feeds = append(e.feeds, FeedingRecord{
			ID:         e.nextIDs.Feeds,
			BreastMilk: e.fakeQuantity(),
			Formula:    e.fakeQuantity(),
			Solids:     e.fakeQuantity(),
			TimeStamp:  e.fakeTimestamp(),
			PersonID:   e.fakePerson().ID,
		})
		e.nextIDs.Feeds++
	}
	return e.commit("add_fake_feedings")
}

// AddFakeExpulsions appends count expulsions for random persons. It panics
// with ErrNoPersons when no person exists.
func (e *Engine) AddFakeExpulsions(count uint32) error {
	e.requireFakeTargets()
	for range count {
		e.expulsions = append(e.expulsions, ExpulsionRecord{
			ID:        e.nextIDs.Expulsions,
			Degree:    ExpulsionDegrees[e.faker.IntRange(0, len(ExpulsionDegrees)-1)],
			TimeStamp: e.fakeTimestamp(),
			PersonID:  e.fakePerson().ID,
		})
		e.nextIDs.Expulsions++
	}
	return e.commit("add_fake_expulsions")
}

// AddFakeEvents appends count generic events for random persons. It panics
// with ErrNoPersons when no person exists.
func (e *Engine) AddFakeEvents(count uint32) error {
	e.requireFakeTargets()
	for range count {
		e.events = append(e.events, GenericEventRecord{
			ID:        e.nextIDs.Events,
			TimeStamp: e.fakeTimestamp(),
			PersonID:  e.fakePerson().ID,
			Event:     e.fakeEventType(),
		})
		e.nextIDs.Events++
	}
	return e.commit("add_fake_events")
}

func (e *Engine) requireFakeTargets() {
	if len(e.persons) == 0 {
		panic(ErrNoPersons)
	}
}

func (e *Engine) fakePerson() Person {
	return e.persons[e.faker.IntRange(0, len(e.persons)-1)]
}

func (e *Engine) fakeQuantity() uint32 {
	return uint32(e.faker.IntRange(0, fakeQuantityMax))
}

// fakeTimestamp lands within roughly the last year of the engine clock.
func (e *Engine) fakeTimestamp() time.Time {
	offset := time.Duration(e.faker.IntRange(0, fakeDaysBack)) * 24 * time.Hour
	offset += time.Duration(e.faker.IntRange(-fakeHourJitter, fakeHourJitter-1)) * time.Hour
	offset += time.Duration(e.faker.IntRange(-fakeMinuteJitter, fakeMinuteJitter-1)) * time.Minute
	return e.now().Add(-offset)
}

func (e *Engine) fakeEventType() EventType {
	switch EventKinds[e.faker.IntRange(0, len(EventKinds)-1)] {
	case EventMedicine:
		return Medicine(e.faker.Word())
	case EventNote:
		return Note(e.faker.Adjective() + " " + e.faker.Noun())
	case EventTemperature:
		return Temperature(math.Round(e.faker.Float64Range(35.5, 40.5)*10) / 10)
	case EventSleep:
		return Sleep()
	case EventAwake:
		return Awake()
	default:
		return Bath()
	}
}

func (e *Engine) fakeName() string {
	for range fakeNameAttempts {
		if name := e.faker.Name(); !e.nameTaken(name) {
			return name
		}
	}
	base := e.faker.Name()
	for suffix := 2; ; suffix++ {
		if name := fmt.Sprintf("%s %d", base, suffix); !e.nameTaken(name) {
			return name
		}
	}
}
