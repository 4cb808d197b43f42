package dal

import (
	"encoding/json"
	"fmt"
)

// Persisted keys
const (
	KeyRankings    = "draftboard-rankings"
	KeyPlayerMarks = "draftboard-player-marks"
	KeyNotes       = "draftboard-notes"
	KeyDraftStatus = "draftboard-draft-status"
	KeySettings    = "draftboard-settings"
)

// Keys lists every key the board persists
var Keys = []string{KeyRankings, KeyPlayerMarks, KeyNotes, KeyDraftStatus, KeySettings}

// DraftDAL defines the interface for the board's key-value persistence
type DraftDAL interface {
	// Load returns nil, nil when key has never been saved
	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
	Delete(key string) error
	Ping() error
	Close() error
}

// LoadJSON decodes the value stored under key into v and reports whether it existed
func LoadJSON(store DraftDAL, key string, v any) (bool, error) {
	data, err := store.Load(key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key
func SaveJSON(store DraftDAL, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Save(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every board key
func DeleteAll(store DraftDAL) error {
	for _, key := range Keys {
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}
