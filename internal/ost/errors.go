package ost

import "errors"

var (
	// ErrDuplicateName indicates a person with the same name already exists.
	ErrDuplicateName = errors.New("ost: person name already exists")
	// ErrPersonNotFound indicates the referenced person is not in the store.
	ErrPersonNotFound = errors.New("ost: person not found")
	// ErrFeedingNotFound indicates no feeding matches the supplied id.
	ErrFeedingNotFound = errors.New("ost: feeding not found")
	// ErrExpulsionNotFound indicates no expulsion matches the supplied id.
	ErrExpulsionNotFound = errors.New("ost: expulsion not found")
	// ErrEventNotFound indicates no generic event matches the supplied id.
	ErrEventNotFound = errors.New("ost: event not found")
	// ErrDanglingPerson indicates a persisted record points at a person id
	// that is absent from the loaded person list. Stores refuse to open on it.
	ErrDanglingPerson = errors.New("ost: record references unknown person")
	// ErrInvalidKind indicates an unknown entity kind or enum value.
	ErrInvalidKind = errors.New("ost: invalid kind")
)

// ErrNoPersons is the panic value raised when fake events are requested
// before any person exists.
var ErrNoPersons = errors.New("ost: fake events require at least one person")
