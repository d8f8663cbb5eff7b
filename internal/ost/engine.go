package ost

import (
	"fmt"
	"slices"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

// PersistFunc makes a snapshot durable. Engines call it after every mutation.
type PersistFunc func(Snapshot) error

// EngineConfig describes the dependencies of an Engine.
type EngineConfig struct {
	Snapshot Snapshot
	Persist  PersistFunc
	Clock    func() time.Time
	Faker    *gofakeit.Faker
	Logger   *zap.Logger
}

// Engine is the in-process Context. It owns persons and the three event
// collections as flat records and resolves person views on every read.
type Engine struct {
	persons    []Person
	feeds      []FeedingRecord
	expulsions []ExpulsionRecord
	events     []GenericEventRecord
	nextIDs    Sequences

	persist PersistFunc
	clock   func() time.Time
	faker   *gofakeit.Faker
	logger  *zap.Logger
}

var _ Context = (*Engine)(nil)

// NewEngine validates the snapshot and builds an engine over it. A record
// pointing at an unknown person fails with ErrDanglingPerson.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	snapshot := cfg.Snapshot.normalized()
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	snapshot = snapshot.clone()

	persist := cfg.Persist
	if persist == nil {
		persist = func(Snapshot) error { return nil }
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	faker := cfg.Faker
	if faker == nil {
		faker = gofakeit.New(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		persons:    snapshot.Persons,
		feeds:      snapshot.Feeds,
		expulsions: snapshot.Expulsions,
		events:     snapshot.Events,
		nextIDs:    snapshot.NextIDs,
		persist:    persist,
		clock:      clock,
		faker:      faker,
		logger:     logger,
	}
	engine.sortCollections()
	return engine, nil
}

// Snapshot returns a copy of the current state in persistence shape.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Persons:    e.persons,
		Feeds:      e.feeds,
		Expulsions: e.expulsions,
		Events:     e.events,
		NextIDs:    e.nextIDs,
	}.clone()
}

// Persist writes the current state through the configured PersistFunc.
func (e *Engine) Persist() error {
	return e.persist(e.Snapshot())
}

func (e *Engine) commit(operation string) error {
	e.sortCollections()
	if err := e.persist(e.Snapshot()); err != nil {
		e.logger.Error("ost persist failed", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("ost: %s: persist: %w", operation, err)
	}
	return nil
}

func (e *Engine) sortCollections() {
	SortNewestFirst(e.feeds)
	SortNewestFirst(e.expulsions)
	SortNewestFirst(e.events)
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

// PurgeAllData removes persons and every event. Id counters are kept.
func (e *Engine) PurgeAllData() error {
	e.persons = []Person{}
	e.clearEvents()
	return e.commit("purge_all_data")
}

// PurgeAllEvents removes every event and keeps persons.
func (e *Engine) PurgeAllEvents() error {
	e.clearEvents()
	return e.commit("purge_all_events")
}

func (e *Engine) clearEvents() {
	e.feeds = []FeedingRecord{}
	e.expulsions = []ExpulsionRecord{}
	e.events = []GenericEventRecord{}
}

// GetBaseEventByKey looks up any event kind by composite key.
func (e *Engine) GetBaseEventByKey(key EventKey) (EventBase, bool) {
	switch key.Kind {
	case KindFeed:
		if feeding, ok := e.GetFeedingByKey(key); ok {
			return feeding, true
		}
	case KindExpulsion:
		if expulsion, ok := e.GetExpulsionByKey(key); ok {
			return expulsion, true
		}
	case KindEvent:
		if event, ok := e.GetEventByKey(key); ok {
			return event, true
		}
	}
	return nil, false
}

// Persons returns a copy of every person.
func (e *Engine) Persons() []Person {
	return append([]Person{}, e.persons...)
}

// GetPersonByKey finds a person by id.
func (e *Engine) GetPersonByKey(key PersonKey) (Person, bool) {
	return findPerson(e.persons, key.ID)
}

// AddPerson creates an active person. Names must be unique (exact match).
func (e *Engine) AddPerson(name string) (Person, error) {
	if e.nameTaken(name) {
		return Person{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	person := NewPerson(e.nextIDs.Persons, name)
	e.nextIDs.Persons++
	e.persons = append(e.persons, person)
	if err := e.commit("add_person"); err != nil {
		return Person{}, err
	}
	return person, nil
}

// ModifyPerson applies the name and active flag of the supplied person to the
// stored person with the same id. Renames are not checked for uniqueness.
func (e *Engine) ModifyPerson(person Person) error {
	index := slices.IndexFunc(e.persons, func(p Person) bool { return p.ID == person.ID })
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrPersonNotFound, person.Name)
	}
	e.persons[index].IsActive = person.IsActive
	e.persons[index].Name = person.Name
	return e.commit("modify_person")
}

func (e *Engine) nameTaken(name string) bool {
	return slices.ContainsFunc(e.persons, func(p Person) bool { return p.Name == name })
}

func (e *Engine) requirePerson(person Person) (Person, error) {
	stored, ok := findPerson(e.persons, person.ID)
	if !ok {
		return Person{}, fmt.Errorf("%w: id %d", ErrPersonNotFound, person.ID)
	}
	return stored, nil
}

// Feedings returns every feeding, newest first.
func (e *Engine) Feedings() []Feeding {
	return mustResolve(e.feeds, e.persons, ResolveFeeding)
}

// FeedingsBy returns the feedings of one person, newest first.
func (e *Engine) FeedingsBy(person Person) []Feeding {
	return mustResolve(filterByPerson(e.feeds, person.ID), e.persons, ResolveFeeding)
}

// AddFeeding records a feeding for an existing person, stamped now.
func (e *Engine) AddFeeding(person Person, breastMilk, formula, solids uint32) (Feeding, error) {
	stored, err := e.requirePerson(person)
	if err != nil {
		return Feeding{}, err
	}
	record := FeedingRecord{
		ID:         e.nextIDs.Feeds,
		BreastMilk: breastMilk,
		Formula:    formula,
		Solids:     solids,
		TimeStamp:  e.now(),
		PersonID:   stored.ID,
	}
	e.nextIDs.Feeds++
	e.feeds = append(e.feeds, record)
	if err := e.commit("add_feeding"); err != nil {
		return Feeding{}, err
	}
	return ResolveFeeding(record, e.persons)
}

// ModifyFeeding replaces quantities and timestamp of the feeding with the
// same id.
func (e *Engine) ModifyFeeding(feeding Feeding) error {
	index := indexByID(e.feeds, feeding.ID)
	if index < 0 {
		return notFoundError(ErrFeedingNotFound, feeding)
	}
	record := &e.feeds[index]
	record.BreastMilk = feeding.BreastMilk
	record.Formula = feeding.Formula
	record.Solids = feeding.Solids
	record.TimeStamp = feeding.TimeStamp.UTC()
	return e.commit("modify_feeding")
}

// RemoveFeeding deletes the feeding with the same id.
func (e *Engine) RemoveFeeding(feeding Feeding) error {
	index := indexByID(e.feeds, feeding.ID)
	if index < 0 {
		return notFoundError(ErrFeedingNotFound, feeding)
	}
	e.feeds = slices.Delete(e.feeds, index, index+1)
	return e.commit("remove_feeding")
}

// GetFeedingByKey resolves a Feed key.
func (e *Engine) GetFeedingByKey(key EventKey) (Feeding, bool) {
	if key.Kind != KindFeed {
		return Feeding{}, false
	}
	index := indexByID(e.feeds, key.ID)
	if index < 0 {
		return Feeding{}, false
	}
	feeding, err := ResolveFeeding(e.feeds[index], e.persons)
	return feeding, err == nil
}

// Expulsions returns every expulsion, newest first.
func (e *Engine) Expulsions() []Expulsion {
	return mustResolve(e.expulsions, e.persons, ResolveExpulsion)
}

// ExpulsionsBy returns the expulsions of one person, newest first.
func (e *Engine) ExpulsionsBy(person Person) []Expulsion {
	return mustResolve(filterByPerson(e.expulsions, person.ID), e.persons, ResolveExpulsion)
}

// AddExpulsion records an expulsion for an existing person, stamped now.
func (e *Engine) AddExpulsion(person Person, degree ExpulsionDegree) (Expulsion, error) {
	stored, err := e.requirePerson(person)
	if err != nil {
		return Expulsion{}, err
	}
	if _, err := ParseExpulsionDegree(string(degree)); err != nil {
		return Expulsion{}, err
	}
	record := ExpulsionRecord{
		ID:        e.nextIDs.Expulsions,
		Degree:    degree,
		TimeStamp: e.now(),
		PersonID:  stored.ID,
	}
	e.nextIDs.Expulsions++
	e.expulsions = append(e.expulsions, record)
	if err := e.commit("add_expulsion"); err != nil {
		return Expulsion{}, err
	}
	return ResolveExpulsion(record, e.persons)
}

// ModifyExpulsion replaces degree and timestamp of the expulsion with the
// same id.
func (e *Engine) ModifyExpulsion(expulsion Expulsion) error {
	index := indexByID(e.expulsions, expulsion.ID)
	if index < 0 {
		return notFoundError(ErrExpulsionNotFound, expulsion)
	}
	if _, err := ParseExpulsionDegree(string(expulsion.Degree)); err != nil {
		return err
	}
	record := &e.expulsions[index]
	record.Degree = expulsion.Degree
	record.TimeStamp = expulsion.TimeStamp.UTC()
	return e.commit("modify_expulsion")
}

// RemoveExpulsion deletes the expulsion with the same id.
func (e *Engine) RemoveExpulsion(expulsion Expulsion) error {
	index := indexByID(e.expulsions, expulsion.ID)
	if index < 0 {
		return notFoundError(ErrExpulsionNotFound, expulsion)
	}
	e.expulsions = slices.Delete(e.expulsions, index, index+1)
	return e.commit("remove_expulsion")
}

// GetExpulsionByKey resolves an Expulsion key.
func (e *Engine) GetExpulsionByKey(key EventKey) (Expulsion, bool) {
	if key.Kind != KindExpulsion {
		return Expulsion{}, false
	}
	index := indexByID(e.expulsions, key.ID)
	if index < 0 {
		return Expulsion{}, false
	}
	expulsion, err := ResolveExpulsion(e.expulsions[index], e.persons)
	return expulsion, err == nil
}

// Events returns every generic event, newest first.
func (e *Engine) Events() []GenericEvent {
	return mustResolve(e.events, e.persons, ResolveGenericEvent)
}

// EventsBy returns the generic events of one person, newest first.
func (e *Engine) EventsBy(person Person) []GenericEvent {
	return mustResolve(filterByPerson(e.events, person.ID), e.persons, ResolveGenericEvent)
}

// AddEvent records a generic event for an existing person, stamped now.
func (e *Engine) AddEvent(person Person, event EventType) (GenericEvent, error) {
	stored, err := e.requirePerson(person)
	if err != nil {
		return GenericEvent{}, err
	}
	if err := event.Validate(); err != nil {
		return GenericEvent{}, err
	}
	record := GenericEventRecord{
		ID:        e.nextIDs.Events,
		TimeStamp: e.now(),
		PersonID:  stored.ID,
		Event:     event,
	}
	e.nextIDs.Events++
	e.events = append(e.events, record)
	if err := e.commit("add_event"); err != nil {
		return GenericEvent{}, err
	}
	return ResolveGenericEvent(record, e.persons)
}

// ModifyEvent replaces timestamp and payload of the event with the same id.
func (e *Engine) ModifyEvent(event GenericEvent) error {
	index := indexByID(e.events, event.ID)
	if index < 0 {
		return notFoundError(ErrEventNotFound, event)
	}
	if err := event.Event.Validate(); err != nil {
		return err
	}
	record := &e.events[index]
	record.TimeStamp = event.TimeStamp.UTC()
	record.Event = event.Event
	return e.commit("modify_event")
}

// RemoveEvent deletes the event with the same id.
func (e *Engine) RemoveEvent(event GenericEvent) error {
	index := indexByID(e.events, event.ID)
	if index < 0 {
		return notFoundError(ErrEventNotFound, event)
	}
	e.events = slices.Delete(e.events, index, index+1)
	return e.commit("remove_event")
}

// GetEventByKey resolves an Event key.
func (e *Engine) GetEventByKey(key EventKey) (GenericEvent, bool) {
	if key.Kind != KindEvent {
		return GenericEvent{}, false
	}
	index := indexByID(e.events, key.ID)
	if index < 0 {
		return GenericEvent{}, false
	}
	event, err := ResolveGenericEvent(e.events[index], e.persons)
	return event, err == nil
}

type record interface {
	recordID() uint32
	personID() uint32
}

func (r FeedingRecord) recordID() uint32      { return r.ID }
func (r FeedingRecord) personID() uint32      { return r.PersonID }
func (r ExpulsionRecord) recordID() uint32    { return r.ID }
func (r ExpulsionRecord) personID() uint32    { return r.PersonID }
func (r GenericEventRecord) recordID() uint32 { return r.ID }
func (r GenericEventRecord) personID() uint32 { return r.PersonID }

func indexByID[R record](records []R, id uint32) int {
	return slices.IndexFunc(records, func(r R) bool { return r.recordID() == id })
}

func filterByPerson[R record](records []R, personID uint32) []R {
	output := make([]R, 0)
	for _, r := range records {
		if r.personID() == personID {
			output = append(output, r)
		}
	}
	return output
}

// mustResolve is used on engine state, whose references were validated on
// construction and are kept intact by every mutation.
func mustResolve[R any, E any](records []R, persons []Person, resolve func(R, []Person) (E, error)) []E {
	resolved, err := resolveAll(records, persons, resolve)
	if err != nil {
		panic(err)
	}
	return resolved
}

func notFoundError(sentinel error, event EventBase) error {
	return fmt.Errorf("%w: %s %s", sentinel, event.PersonName(), event.OccurredAt().Format(time.RFC3339))
}
