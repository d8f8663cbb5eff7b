package ost

import (
	"encoding/json"
	"fmt"
)

// PersonKey is the externally stable handle to a person.
type PersonKey struct {
	ID uint32 `json:"id"`
}

// Person is a tracked individual. The engine owns the authoritative copy;
// every value handed out is an independent snapshot.
type Person struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// NewPerson returns an active person.
func NewPerson(id uint32, name string) Person {
	return Person{ID: id, Name: name, IsActive: true}
}

// Key returns the person's key.
func (p Person) Key() PersonKey {
	return PersonKey{ID: p.ID}
}

// Serialize encodes the person as its wire JSON.
func (p Person) Serialize() string {
	return mustJSON(p)
}

// DeserializePerson decodes a person from its wire JSON.
func DeserializePerson(payload string) (Person, error) {
	var person Person
	if err := json.Unmarshal([]byte(payload), &person); err != nil {
		return Person{}, fmt.Errorf("ost: decode person: %w", err)
	}
	return person, nil
}

func findPerson(persons []Person, id uint32) (Person, bool) {
	for _, person := range persons {
		if person.ID == id {
			return person, true
		}
	}
	return Person{}, false
}

// mustJSON panics only on types that cannot be marshalled, which none of the
// entity types are.
func mustJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Errorf("ost: marshal %T: %w", value, err))
	}
	return string(encoded)
}
