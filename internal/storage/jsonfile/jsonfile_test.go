package jsonfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

func TestOpenCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")

	engine, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(engine.Persons()) != 0 {
		t.Fatalf("expected empty context")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file to be written: %v", err)
	}
	if !strings.Contains(string(data), `"persons": []`) {
		t.Fatalf("unexpected initial file %s", data)
	}
}

func TestReopenSeesModifiedFeeding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")

	first, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	zardoz, err := first.AddPerson("Zardoz")
	if err != nil {
		t.Fatalf("add person: %v", err)
	}
	feeding, err := first.AddFeeding(zardoz, 11, 22, 33)
	if err != nil {
		t.Fatalf("add feeding: %v", err)
	}
	if feeding.BreastMilk != 11 {
		t.Fatalf("expected breast milk 11, got %d", feeding.BreastMilk)
	}
	feeding.Modify(feeding.BreastMilk, feeding.Formula, 66, feeding.TimeStamp)
	if err := first.ModifyFeeding(feeding); err != nil {
		t.Fatalf("modify feeding: %v", err)
	}

	second, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	feedings := second.Feedings()
	if len(feedings) != 1 {
		t.Fatalf("expected one feeding, got %d", len(feedings))
	}
	if feedings[0].Solids != 66 {
		t.Fatalf("expected solids 66, got %d", feedings[0].Solids)
	}
	if feedings[0].PersonName() != "Zardoz" {
		t.Fatalf("expected person association to survive, got %q", feedings[0].PersonName())
	}
}

func TestRoundTripPreservesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	engine, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	anna, err := engine.AddPerson("Anna")
	if err != nil {
		t.Fatalf("add person: %v", err)
	}
	if _, err := engine.AddExpulsion(anna, ost.DegreePoopies); err != nil {
		t.Fatalf("add expulsion: %v", err)
	}
	event, err := engine.AddEvent(anna, ost.Temperature(37.5))
	if err != nil {
		t.Fatalf("add event: %v", err)
	}
	if _, err := engine.AddEvent(anna, ost.Medicine("ibuprofen")); err != nil {
		t.Fatalf("add event: %v", err)
	}
	if err := engine.RemoveEvent(event); err != nil {
		t.Fatalf("remove event: %v", err)
	}
	anna.IsActive = false
	if err := engine.ModifyPerson(anna); err != nil {
		t.Fatalf("modify person: %v", err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	before := engine.Snapshot()
	after := reopened.Snapshot()
	if len(before.Expulsions) != len(after.Expulsions) || before.Expulsions[0] != after.Expulsions[0] {
		t.Fatalf("expulsions differ: %+v vs %+v", before.Expulsions, after.Expulsions)
	}
	if len(after.Events) != 1 || after.Events[0] != before.Events[0] {
		t.Fatalf("events differ: %+v vs %+v", before.Events, after.Events)
	}
	if after.Persons[0] != before.Persons[0] {
		t.Fatalf("persons differ: %+v vs %+v", before.Persons, after.Persons)
	}
	if after.NextIDs != before.NextIDs {
		t.Fatalf("counters differ: %+v vs %+v", before.NextIDs, after.NextIDs)
	}
}

func TestFromFileWritesDestination(t *testing.T) {
	directory := t.TempDir()
	source := filepath.Join(directory, "source.json")
	destination := filepath.Join(directory, "destination.json")

	engine, err := Open(source, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := engine.AddPerson("Anna"); err != nil {
		t.Fatalf("add person: %v", err)
	}

	copied, err := FromFile(source, destination, nil)
	if err != nil {
		t.Fatalf("from file: %v", err)
	}
	if _, err := copied.AddPerson("Bert"); err != nil {
		t.Fatalf("add person: %v", err)
	}

	sourceSnapshot, _, err := Read(source)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	destinationSnapshot, found, err := Read(destination)
	if err != nil || !found {
		t.Fatalf("read destination: %v %v", found, err)
	}
	if len(sourceSnapshot.Persons) != 1 {
		t.Fatalf("expected source untouched, got %d persons", len(sourceSnapshot.Persons))
	}
	if len(destinationSnapshot.Persons) != 2 {
		t.Fatalf("expected destination to hold both persons, got %d", len(destinationSnapshot.Persons))
	}
}

func TestOpenRejectsDanglingReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	content := `{"persons":[],"feeds":[{"id":0,"breast_milk":1,"formula":0,"solids":0,"time_stamp":"2024-01-01T00:00:00Z","person_id":4}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Open(path, nil); !errors.Is(err, ost.ErrDanglingPerson) {
		t.Fatalf("expected dangling person error, got %v", err)
	}
}

func TestOpenRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Open(path, nil); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestWriteLeavesNoTemporaryFiles(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "context.json")
	if err := Write(path, ost.EmptySnapshot()); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "context.json" {
		t.Fatalf("unexpected directory contents %v", entries)
	}
}

func TestRejectedDegreeKeepsFileReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")

	first, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	zardoz, err := first.AddPerson("Zardoz")
	if err != nil {
		t.Fatalf("add person: %v", err)
	}
	expulsion, err := first.AddExpulsion(zardoz, ost.DegreePee)
	if err != nil {
		t.Fatalf("add expulsion: %v", err)
	}
	expulsion.Modify("", expulsion.TimeStamp)
	if err := first.ModifyExpulsion(expulsion); !errors.Is(err, ost.ErrInvalidKind) {
		t.Fatalf("expected invalid degree, got %v", err)
	}

	second, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	expulsions := second.Expulsions()
	if len(expulsions) != 1 || expulsions[0].Degree != ost.DegreePee {
		t.Fatalf("expected the stored Pee to survive, got %+v", expulsions)
	}
}
