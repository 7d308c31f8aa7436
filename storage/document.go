package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"f0oster/schemadesk/schema"
)

// DocumentStore persists the workspace document as one JSON file, rewritten
// in full on every save.
type DocumentStore struct {
	path string
}

func NewDocumentStore(path string) *DocumentStore {
	return &DocumentStore{path: path}
}

// Load reads the persisted document. A missing file returns (nil, nil) so
// the caller can initialize a fresh document.
func (s *DocumentStore) Load() (*schema.Database, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read document %s: %w", s.path, err)
	}
	var doc schema.Database
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", s.path, err)
	}
	return &doc, nil
}

// Save rewrites the document file in full.
func (s *DocumentStore) Save(doc *schema.Database) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", s.path, err)
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
