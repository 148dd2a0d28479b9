package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/pet-adoption/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Action string

const (
	ActionCreated         Action = "created"
	ActionUpdated         Action = "updated"
	ActionDeleted         Action = "deleted"
	ActionInterestAdded   Action = "interest_added"
	ActionInterestRemoved Action = "interest_removed"
	ActionFavoriteAdded   Action = "favorite_added"
	ActionFavoriteRemoved Action = "favorite_removed"
	ActionImageAttached   Action = "image_attached"
)

// Entry is one line of the journal
type Entry struct {
	ID        string    `json:"id"`
	PetID     string    `json:"pet_id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Journal is an append-only JSON-lines log of listing activity
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex

	rename func(oldpath, newpath string) error
}

// Open creates the journal file (and its directory) if needed
func Open(filePath string) (*Journal, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Journal{
		filePath: filePath,
		file:     file,
		rename:   os.Rename,
	}, nil
}

// Record appends an event for a listing
func (j *Journal) Record(petID, userID uuid.UUID, action Action) error {
	return j.Append(Entry{
		PetID:  petID.String(),
		UserID: userID.String(),
		Action: action,
	})
}

// Append writes the entry and syncs it to disk. ID and Timestamp are filled
// in when empty.
func (j *Journal) Append(entry Entry) error {
	start := time.Now()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = start.UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(append(data, '\n')); err != nil {
		logger.Log.Error("Journal: Failed to write entry",
			zap.String("pet_id", entry.PetID),
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
		return err
	}

	if err := j.file.Sync(); err != nil {
		logger.Log.Error("Journal: Failed to sync to disk",
			zap.String("pet_id", entry.PetID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Journal: Entry appended",
		zap.String("pet_id", entry.PetID),
		zap.String("action", string(entry.Action)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// ReadAll returns every entry in append order
func (j *Journal) ReadAll() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.readAllUnsafe()
}

// ForPet returns the history of one listing, oldest first
func (j *Journal) ForPet(petID uuid.UUID) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	all, err := j.readAllUnsafe()
	if err != nil {
		return nil, err
	}

	id := petID.String()
	entries := []Entry{}
	for _, entry := range all {
		if entry.PetID == id {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Prune rewrites the journal without the given listings' entries. The file is
// replaced by rename so a crash leaves either the old or the new journal.
func (j *Journal) Prune(petIDs ...uuid.UUID) error {
	if len(petIDs) == 0 {
		return nil
	}

	start := time.Now()
	j.mu.Lock()
	defer j.mu.Unlock()

	allEntries, err := j.readAllUnsafe()
	if err != nil {
		logger.Log.Error("Journal: Failed to read entries for prune", zap.Error(err))
		return err
	}

	pruned := make(map[string]struct{}, len(petIDs))
	for _, id := range petIDs {
		pruned[id.String()] = struct{}{}
	}

	var remaining []Entry
	for _, entry := range allEntries {
		if _, ok := pruned[entry.PetID]; !ok {
			remaining = append(remaining, entry)
		}
	}

	tempFile := j.filePath + ".tmp"
	if err := writeEntries(tempFile, remaining); err != nil {
		logger.Log.Error("Journal: Failed to write temp file",
			zap.String("temp_file", tempFile),
			zap.Error(err),
		)
		_ = os.Remove(tempFile)
		return err
	}

	// The current descriptor stays open until the new file is in place, so a
	// failed prune leaves the journal writable
	if err := j.rename(tempFile, j.filePath); err != nil {
		logger.Log.Error("Journal: Failed to rename temp file",
			zap.String("temp_file", tempFile),
			zap.String("target_file", j.filePath),
			zap.Error(err),
		)
		_ = os.Remove(tempFile)
		return err
	}

	// The old descriptor points at the unlinked file
	newFile, err := os.OpenFile(j.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		logger.Log.Error("Journal: Failed to reopen file after prune",
			zap.String("file_path", j.filePath),
			zap.Error(err),
		)
		return err
	}
	oldFile := j.file
	j.file = newFile
	if err := oldFile.Close(); err != nil {
		logger.Log.Warn("Journal: Failed to close replaced file", zap.Error(err))
	}

	logger.Log.Info("Journal: Prune completed",
		zap.Int("before_count", len(allEntries)),
		zap.Int("remaining_count", len(remaining)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func writeEntries(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readAllUnsafe reads all entries without locking. Lines that fail to decode
// (a torn final write) are skipped.
func (j *Journal) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
