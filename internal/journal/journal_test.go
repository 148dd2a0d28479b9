package journal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "activity.log")
	j, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func TestJournal_RecordAndForPet(t *testing.T) {
	j, _ := openTestJournal(t)
	petA, petB, user := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, j.Record(petA, user, ActionCreated))
	require.NoError(t, j.Record(petB, user, ActionCreated))
	require.NoError(t, j.Record(petA, user, ActionFavoriteAdded))

	entries, err := j.ForPet(petA)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionCreated, entries[0].Action)
	assert.Equal(t, ActionFavoriteAdded, entries[1].Action)
	assert.Equal(t, user.String(), entries[0].UserID)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestJournal_ForPetUnknownIsEmpty(t *testing.T) {
	j, _ := openTestJournal(t)

	entries, err := j.ForPet(uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

// Appends after a prune must land in the new file, not the unlinked one
func TestJournal_AppendAfterPrune(t *testing.T) {
	j, path := openTestJournal(t)
	deleted, kept, user := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, j.Record(deleted, user, ActionCreated))
	require.NoError(t, j.Record(kept, user, ActionCreated))
	require.NoError(t, j.Record(deleted, user, ActionInterestAdded))

	require.NoError(t, j.Prune(deleted))

	all, err := j.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.String(), all[0].PetID)

	require.NoError(t, j.Record(kept, user, ActionUpdated))

	all, err = j.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestJournal_SkipsTornLines(t *testing.T) {
	j, path := openTestJournal(t)
	pet := uuid.New()
	require.NoError(t, j.Record(pet, uuid.New(), ActionCreated))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"half`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := j.ForPet(pet)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJournal_ConcurrentAppends(t *testing.T) {
	j, _ := openTestJournal(t)
	pet := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, j.Record(pet, uuid.New(), ActionInterestAdded))
		}()
	}
	wg.Wait()

	entries, err := j.ForPet(pet)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestJournal_ReopenKeepsHistory(t *testing.T) {
	j, path := openTestJournal(t)
	pet := uuid.New()
	require.NoError(t, j.Record(pet, uuid.New(), ActionCreated))
	require.NoError(t, j.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.ForPet(pet)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJournal_FailedPruneKeepsJournalWritable(t *testing.T) {
	j, path := openTestJournal(t)
	deleted := uuid.New()
	kept := uuid.New()
	user := uuid.New()
	require.NoError(t, j.Record(deleted, user, ActionCreated))
	require.NoError(t, j.Record(kept, user, ActionCreated))

	j.rename = func(string, string) error { return os.ErrPermission }
	err := j.Prune(deleted)
	assert.ErrorIs(t, err, os.ErrPermission)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, j.Record(kept, user, ActionUpdated))

	all, err := j.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	entries, err := j.ForPet(kept)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
