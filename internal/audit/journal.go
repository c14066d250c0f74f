package audit

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

// Action names a moderation action recorded in the journal.
type Action string

const (
	ActionDeleteUser   Action = "delete_user"
	ActionDeleteRecipe Action = "delete_recipe"
)

// Entry is one line of the journal.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     Action    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	TargetName string    `json:"target_name,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Journal is an append-only JSON-lines log of moderation actions. Every
// append is fsynced before it returns.
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

// Open creates the journal directory if needed and opens the file for append.
func Open(filePath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Journal{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append writes entry, filling in ID and Timestamp when unset.
func (j *Journal) Append(entry Entry) error {
	start := time.Now()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(append(data, '\n')); err != nil {
		logger.Log.Error("Audit: failed to write entry",
			zap.String("action", string(entry.Action)),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
		return err
	}
	if err := j.file.Sync(); err != nil {
		logger.Log.Error("Audit: failed to sync journal",
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Audit: entry recorded",
		zap.String("entry_id", entry.ID),
		zap.String("action", string(entry.Action)),
		zap.String("actor_id", entry.ActorID),
		zap.String("target_id", entry.TargetID),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	entries, err := j.readAllUnsafe()
	j.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// readAllUnsafe reads all entries without locking. Lines that do not decode
// are skipped. Lines have no length limit.
func (j *Journal) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	reader := bufio.NewReader(file)
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			var entry Entry
			if err := json.Unmarshal(line, &entry); err == nil {
				entries = append(entries, entry)
			}
		}
		if readErr == io.EOF {
			return entries, nil
		}
		if readErr != nil {
			return nil, readErr
		}
	}
}

// Close closes the journal file
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
