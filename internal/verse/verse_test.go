package verse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/storage"
	"weekplan/internal/storage/storagetest"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

// seq returns the given values in order, then repeats the last one.
func seq(vals ...int) func(int) int {
	i := 0
	return func(int) int {
		v := vals[i]
		if i < len(vals)-1 {
			i++
		}
		return v
	}
}

func newService(t *testing.T, kv storage.KV, c *clock, intn func(int) int) *Service {
	t.Helper()
	s := NewService(kv)
	s.now = c.now
	s.intn = intn
	return s
}

func TestDisabledByDefault(t *testing.T) {
	c := &clock{time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	s := newService(t, storagetest.New(t), c, seq(3))

	assert.False(t, s.Enabled())
	assert.Nil(t, s.ForExport())
}

func TestEnableAndExport(t *testing.T) {
	kv := storagetest.New(t)
	c := &clock{time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	s := newService(t, kv, c, seq(2))

	s.SetEnabled(true)
	st, err := storage.Read[Settings](kv, storage.KeyVerseSettings)
	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.Equal(t, 2, st.CurrentVerseIndex)

	v := s.ForExport()
	require.NotNil(t, v)
	assert.Equal(t, "Psalm 23,1", v.Reference)
}

func TestCurrentRotatesAfterAWeek(t *testing.T) {
	kv := storagetest.New(t)
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Write(kv, storage.KeyVerseSettings, Settings{Enabled: true, LastChanged: start, CurrentVerseIndex: 5}))

	c := &clock{start.Add(6*24*time.Hour + 23*time.Hour)}
	s := newService(t, kv, c, seq(5, 5, 5, 9))
	assert.Equal(t, verses[5], s.Current())

	c.t = start.Add(RotateAfter)
	// draws of the current index are retried
	assert.Equal(t, verses[9], s.Current())

	st := s.Settings()
	assert.Equal(t, 9, st.CurrentVerseIndex)
	assert.True(t, st.LastChanged.Equal(c.t))
}

func TestCurrentRepairsInvalidIndex(t *testing.T) {
	kv := storagetest.New(t)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Write(kv, storage.KeyVerseSettings, Settings{Enabled: true, LastChanged: now, CurrentVerseIndex: 999}))

	s := newService(t, kv, &clock{now}, seq(7))
	assert.Equal(t, verses[7], s.Current())
	assert.Equal(t, 7, s.Settings().CurrentVerseIndex)
}

func TestRefreshPicksAnotherVerse(t *testing.T) {
	kv := storagetest.New(t)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Write(kv, storage.KeyVerseSettings, Settings{Enabled: true, LastChanged: now, CurrentVerseIndex: 1}))

	s := newService(t, kv, &clock{now}, seq(1, 1, 1, 4))
	assert.Equal(t, verses[4], s.Refresh())
}

func TestBrokenStorageStillServesAVerse(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s := newService(t, storagetest.Broken{}, &clock{now}, seq(0))

	s.SetEnabled(true)
	assert.False(t, s.Enabled())
	assert.Equal(t, verses[0], s.Current())
}

func TestDefaultVerseIsStable(t *testing.T) {
	kv := storagetest.New(t)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s := newService(t, kv, &clock{now}, seq(4, 11, 17))

	first := s.Current()
	assert.Equal(t, verses[4], first)
	assert.Equal(t, first, s.Current())
	assert.Equal(t, first, s.Current())

	st, err := storage.Read[Settings](kv, storage.KeyVerseSettings)
	require.NoError(t, err)
	assert.False(t, st.Enabled)
	assert.Equal(t, 4, st.CurrentVerseIndex)

	// a second process sees the same verse
	other := newService(t, kv, &clock{now}, seq(20))
	assert.Equal(t, first, other.Current())
}

func TestCorruptSettingsAreReplaced(t *testing.T) {
	kv := storagetest.New(t)
	storagetest.Corrupt(t, kv, storage.KeyVerseSettings)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	s := newService(t, kv, &clock{now}, seq(6, 8))

	assert.Equal(t, verses[6], s.Current())
	assert.Equal(t, verses[6], s.Current())
}

func TestByReference(t *testing.T) {
	v, ok := ByReference("römer 12")
	require.True(t, ok)
	assert.Equal(t, "Römer 12,12", v.Reference)

	_, ok = ByReference("Hesekiel")
	assert.False(t, ok)
	_, ok = ByReference("  ")
	assert.False(t, ok)

	assert.Len(t, All(), len(verses))
}
