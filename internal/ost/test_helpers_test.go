package ost

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// steppingClock advances by one minute on every read.
type steppingClock struct {
	current time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{current: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.current = c.current.Add(time.Minute)
	return c.current
}

type persistRecorder struct {
	snapshots []Snapshot
	err       error
}

func (r *persistRecorder) persist(snapshot Snapshot) error {
	r.snapshots = append(r.snapshots, snapshot)
	return r.err
}

func (r *persistRecorder) last(t *testing.T) Snapshot {
	t.Helper()
	if len(r.snapshots) == 0 {
		t.Fatalf("expected at least one persisted snapshot")
	}
	return r.snapshots[len(r.snapshots)-1]
}

func newTestEngine(t *testing.T) (*Engine, *persistRecorder) {
	t.Helper()
	recorder := &persistRecorder{}
	engine, err := NewEngine(EngineConfig{
		Snapshot: EmptySnapshot(),
		Persist:  recorder.persist,
		Clock:    newSteppingClock().Now,
		Faker:    gofakeit.New(42),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine, recorder
}

func mustAddPerson(t *testing.T, engine *Engine, name string) Person {
	t.Helper()
	person, err := engine.AddPerson(name)
	if err != nil {
		t.Fatalf("add person %q: %v", name, err)
	}
	return person
}

func mustAddFeeding(t *testing.T, engine *Engine, person Person, breastMilk, formula, solids uint32) Feeding {
	t.Helper()
	feeding, err := engine.AddFeeding(person, breastMilk, formula, solids)
	if err != nil {
		t.Fatalf("add feeding: %v", err)
	}
	return feeding
}

func assertNewestFirst[E timestamped](t *testing.T, label string, events []E) {
	t.Helper()
	for index := 1; index < len(events); index++ {
		if events[index].OccurredAt().After(events[index-1].OccurredAt()) {
			t.Fatalf("%s not sorted newest first at index %d", label, index)
		}
	}
}

func expectPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		recovered := recover()
		if recovered == nil {
			t.Fatalf("expected panic %v", want)
		}
		if recovered != want {
			t.Fatalf("expected panic %v, got %v", want, recovered)
		}
	}()
	fn()
}
