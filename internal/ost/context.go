// Package ost models care events (feedings, expulsions, generic events) for
// a set of tracked persons and provides the in-process store that owns them.
//
// Context is the contract every backend satisfies. Engine is the local
// implementation; durable variants differ only in how they build the initial
// Snapshot and what their PersistFunc does. An Engine is not safe for
// concurrent use: route every call through a single owner.
package ost

// Context is the storage contract shared by local and remote backends.
type Context interface {
	PurgeAllData() error
	PurgeAllEvents() error
	GetBaseEventByKey(key EventKey) (EventBase, bool)

	Persons() []Person
	GetPersonByKey(key PersonKey) (Person, bool)
	AddPerson(name string) (Person, error)
	AddFakePersons(count uint32) error
	ModifyPerson(person Person) error

	Feedings() []Feeding
	FeedingsBy(person Person) []Feeding
	AddFeeding(person Person, breastMilk, formula, solids uint32) (Feeding, error)
	AddFakeFeedings(count uint32) error
	ModifyFeeding(feeding Feeding) error
	RemoveFeeding(feeding Feeding) error
	GetFeedingByKey(key EventKey) (Feeding, bool)

	Expulsions() []Expulsion
	ExpulsionsBy(person Person) []Expulsion
	AddExpulsion(person Person, degree ExpulsionDegree) (Expulsion, error)
	AddFakeExpulsions(count uint32) error
	ModifyExpulsion(expulsion Expulsion) error
	RemoveExpulsion(expulsion Expulsion) error
	GetExpulsionByKey(key EventKey) (Expulsion, bool)

	Events() []GenericEvent
	EventsBy(person Person) []GenericEvent
	AddEvent(person Person, event EventType) (GenericEvent, error)
	AddFakeEvents(count uint32) error
	ModifyEvent(event GenericEvent) error
	RemoveEvent(event GenericEvent) error
	GetEventByKey(key EventKey) (GenericEvent, bool)
}
