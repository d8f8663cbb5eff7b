package kvstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

type failingKV struct {
	*MemoryKV
	setErr error
}

func (f *failingKV) Set(key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryKV.Set(key, value)
}

func TestOpenStoresEmptyContextUnderMissingKey(t *testing.T) {
	kv := NewMemoryKV()

	engine, err := Open(kv, "", nil)
	require.NoError(t, err)
	assert.Empty(t, engine.Persons())

	_, found, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestContextSurvivesReopenOnMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	engine, err := Open(kv, "session", nil)
	require.NoError(t, err)

	person, err := engine.AddPerson("Zardoz")
	require.NoError(t, err)
	_, err = engine.AddEvent(person, ost.Note("rash"))
	require.NoError(t, err)

	reopened, err := Open(kv, "session", nil)
	require.NoError(t, err)
	events := reopened.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Zardoz", events[0].PersonName())
	assert.Equal(t, ost.Note("rash"), events[0].Event)
}

func TestContextSurvivesReopenOnBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ost.db")

	bolt, err := OpenBolt(path)
	require.NoError(t, err)
	engine, err := Open(bolt, DefaultKey, nil)
	require.NoError(t, err)
	person, err := engine.AddPerson("Anna")
	require.NoError(t, err)
	_, err = engine.AddExpulsion(person, ost.DegreeShart)
	require.NoError(t, err)
	require.NoError(t, bolt.Close())

	bolt, err = OpenBolt(path)
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })
	reopened, err := Open(bolt, DefaultKey, nil)
	require.NoError(t, err)
	expulsions := reopened.Expulsions()
	require.Len(t, expulsions, 1)
	assert.Equal(t, ost.DegreeShart, expulsions[0].Degree)
}

func TestBoltGetMissingKey(t *testing.T) {
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "ost.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	value, found, err := bolt.Get("absent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestBoltGetEmptyValueIsFound(t *testing.T) {
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "ost.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	require.NoError(t, bolt.Set("blank", []byte{}))
	value, found, err := bolt.Get("blank")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, value)

	_, err = Open(bolt, "blank", nil)
	assert.Error(t, err, "an empty stored value is corrupt, not missing")
}

func TestPersistFailureReachesCaller(t *testing.T) {
	kv := &failingKV{MemoryKV: NewMemoryKV()}
	engine, err := Open(kv, DefaultKey, nil)
	require.NoError(t, err)

	quota := errors.New("quota exceeded")
	kv.setErr = quota
	_, err = engine.AddPerson("Anna")
	assert.ErrorIs(t, err, quota)
}

func TestOpenRejectsCorruptValue(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(DefaultKey, []byte("[]")))

	_, err := Open(kv, DefaultKey, nil)
	assert.Error(t, err)
}
