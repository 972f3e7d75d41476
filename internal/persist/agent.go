package persist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"
)

// SnapshotKey is the single slot holding the autosaved composition.
const SnapshotKey = "songwriter_composition_autosave"

// Snapshot is the durable record of an in-progress composition.
type Snapshot struct {
	Content       string   `json:"content"`
	SelectedNotes []string `json:"selectedNotes"`
	Timestamp     int64    `json:"timestamp"`
}

// SavedAt converts the millisecond timestamp.
func (s Snapshot) SavedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Agent reads and writes the snapshot slot. Every failure is logged and
// degrades to a no-op.
type Agent struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// NewAgent wraps store. A nil logger discards output.
func NewAgent(store Store, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Agent{store: store, logger: logger, now: time.Now}
}

// Snapshot records content and the ids of the selected panes. Blank content
// is not saved. The return value reports whether the write succeeded.
func (a *Agent) Snapshot(ctx context.Context, content string, paneIDs []string) bool {
	if a == nil || a.store == nil {
		return false
	}
	if strings.TrimSpace(content) == "" {
		return false
	}
	ids := append([]string{}, paneIDs...)
	payload, err := json.Marshal(Snapshot{
		Content:       content,
		SelectedNotes: ids,
		Timestamp:     a.now().UnixMilli(),
	})
	if err != nil {
		a.logger.Printf("[persist] encode snapshot: %v", err)
		return false
	}
	if err := a.store.Set(ctx, SnapshotKey, string(payload)); err != nil {
		a.logger.Printf("[persist] write snapshot: %v", err)
		return false
	}
	a.logger.Printf("[persist] snapshot saved (%d bytes, %d panes)", len(content), len(ids))
	return true
}

// Restore returns the stored snapshot, or nil when it is absent, corrupt, or
// missing its content or pane list.
func (a *Agent) Restore(ctx context.Context) *Snapshot {
	if a == nil || a.store == nil {
		return nil
	}
	raw, err := a.store.Get(ctx, SnapshotKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.Printf("[persist] read snapshot: %v", err)
		}
		return nil
	}
	var decoded struct {
		Content       *string   `json:"content"`
		SelectedNotes *[]string `json:"selectedNotes"`
		Timestamp     int64     `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		a.logger.Printf("[persist] discard corrupt snapshot: %v", err)
		return nil
	}
	if decoded.Content == nil || *decoded.Content == "" || decoded.SelectedNotes == nil {
		a.logger.Printf("[persist] discard incomplete snapshot")
		return nil
	}
	return &Snapshot{
		Content:       *decoded.Content,
		SelectedNotes: *decoded.SelectedNotes,
		Timestamp:     decoded.Timestamp,
	}
}

// Purge removes the snapshot slot.
func (a *Agent) Purge(ctx context.Context) {
	if a == nil || a.store == nil {
		return
	}
	if err := a.store.Remove(ctx, SnapshotKey); err != nil {
		a.logger.Printf("[persist] purge snapshot: %v", err)
	}
}
