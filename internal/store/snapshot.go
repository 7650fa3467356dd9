package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the export document.
type Snapshot struct {
	Habits     []models.Habit           `json:"habits"`
	Entries    []models.CompletionEntry `json:"entries"`
	Categories []models.Category        `json:"categories"`
	Settings   models.Settings          `json:"settings"`
	ExportDate time.Time                `json:"exportDate"`
}

// rawSnapshot keeps each top-level field undecoded so absent fields can be
// told apart from empty ones.
type rawSnapshot struct {
	Habits     json.RawMessage `json:"habits"`
	Entries    json.RawMessage `json:"entries"`
	Categories json.RawMessage `json:"categories"`
	Settings   json.RawMessage `json:"settings"`
}

// Snapshot returns the current state as an export document.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]models.Category, len(s.categories))
	for i, c := range s.categories {
		categories[i] = c.Clone()
	}
	return Snapshot{
		Habits:     s.sortedHabits(),
		Entries:    flattenEntries(s.entries),
		Categories: categories,
		Settings:   s.settings,
		ExportDate: s.now().UTC(),
	}
}

// ExportSnapshot serialises the whole store as indented JSON.
func (s *Store) ExportSnapshot() ([]byte, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// ImportSnapshot replaces the collections present in data. It returns false
// and leaves all state untouched when data is not a valid snapshot.
func (s *Store) ImportSnapshot(data []byte) bool {
	if err := s.ImportSnapshotErr(data); err != nil {
		logger.Warn("snapshot import rejected", "error", err)
		return false
	}
	return true
}

// ImportSnapshotErr is ImportSnapshot with the rejection reason.
func (s *Store) ImportSnapshotErr(data []byte) error {
	parsed, err := parseSnapshot(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if parsed.habits != nil {
		s.habits = *parsed.habits
		s.persistHabits()
	}
	if parsed.entries != nil {
		s.entries = indexEntries(*parsed.entries)
		s.persistEntries()
		s.invalidate()
	}
	if parsed.categories != nil {
		s.categories = *parsed.categories
		s.persistCategories()
	}
	if parsed.settings != nil {
		s.settings = *parsed.settings
		s.persistSettings()
	}
	return nil
}

type parsedSnapshot struct {
	habits     *[]models.Habit
	entries    *[]models.CompletionEntry
	categories *[]models.Category
	settings   *models.Settings
}

// parseSnapshot decodes and validates every present field before anything
// is applied.
func parseSnapshot(data []byte) (parsedSnapshot, error) {
	var out parsedSnapshot

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return out, fmt.Errorf("%w: expected a JSON object", ErrInvalidSnapshot)
	}
	var raw rawSnapshot
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	if present(raw.Habits) {
		var habits []models.Habit
		if err := json.Unmarshal(raw.Habits, &habits); err != nil {
			return out, fmt.Errorf("%w: habits: %v", ErrInvalidSnapshot, err)
		}
		seen := make(map[string]bool, len(habits))
		for i := range habits {
			h := &habits[i]
			if h.ID == "" {
				return out, fmt.Errorf("%w: habit at index %d has no id", ErrInvalidSnapshot, i)
			}
			if seen[h.ID] {
				return out, fmt.Errorf("%w: duplicate habit id %s", ErrInvalidSnapshot, h.ID)
			}
			seen[h.ID] = true
			if h.Frequency == "" {
				h.Frequency = models.FrequencyDaily
			}
			if err := normalizeReminder(h); err != nil {
				return out, fmt.Errorf("%w: habit %s: %v", ErrInvalidSnapshot, h.ID, err)
			}
		}
		out.habits = &habits
	}

	if present(raw.Entries) {
		var entries []models.CompletionEntry
		if err := json.Unmarshal(raw.Entries, &entries); err != nil {
			return out, fmt.Errorf("%w: entries: %v", ErrInvalidSnapshot, err)
		}
		for i, e := range entries {
			if e.HabitID == "" {
				return out, fmt.Errorf("%w: entry at index %d has no habitId", ErrInvalidSnapshot, i)
			}
			if err := models.ValidateDay(e.Date); err != nil {
				return out, fmt.Errorf("%w: entry at index %d: %v", ErrInvalidSnapshot, i, err)
			}
		}
		out.entries = &entries
	}

	if present(raw.Categories) {
		var categories []models.Category
		if err := json.Unmarshal(raw.Categories, &categories); err != nil {
			return out, fmt.Errorf("%w: categories: %v", ErrInvalidSnapshot, err)
		}
		for i, c := range categories {
			if c.ID == "" {
				return out, fmt.Errorf("%w: category at index %d has no id", ErrInvalidSnapshot, i)
			}
		}
		out.categories = &categories
	}

	if present(raw.Settings) {
		var settings models.Settings
		if err := json.Unmarshal(raw.Settings, &settings); err != nil {
			return out, fmt.Errorf("%w: settings: %v", ErrInvalidSnapshot, err)
		}
		out.settings = &settings
	}

	return out, nil
}

// normalizeReminder rewrites RFC3339 reminder times from older exports to
// local HH:MM.
func normalizeReminder(h *models.Habit) error {
	if h.ReminderTime == nil || *h.ReminderTime == "" {
		h.ReminderTime = nil
		return nil
	}
	t, err := models.ParseReminderTime(*h.ReminderTime)
	if err != nil {
		return err
	}
	v := t.String()
	h.ReminderTime = &v
	return nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
