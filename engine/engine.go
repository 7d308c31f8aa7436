// Package engine owns the loaded workspace document and dispatches typed
// change operations to their handlers. The engine is the only long-lived
// owner of the document; handlers receive it through an explicit context
// bundle per invocation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"f0oster/schemadesk/history"
	"f0oster/schemadesk/schema"
	"f0oster/schemadesk/storage"
)

type Engine struct {
	docs    *storage.DocumentStore
	history history.Recorder
	logger  *slog.Logger

	doc   *schema.Database
	local *storage.Local
	dirty bool
}

func New(docs *storage.DocumentStore, recorder history.Recorder, logger *slog.Logger) *Engine {
	if recorder == nil {
		recorder = history.NewMemory()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		docs:    docs,
		history: recorder,
		logger:  logger,
	}
}

// Load initializes the in-memory document. With a replicator attached, a
// full remote snapshot becomes the authoritative document and local
// persistence is bypassed. Otherwise the local document is read, or a fresh
// one (with the built-in admin role) is created and persisted immediately.
func (e *Engine) Load(ctx context.Context, remote storage.Replicator) error {
	if remote != nil {
		doc, err := remote.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("load remote snapshot: %w", err)
		}
		e.doc = doc
		e.local = storage.NewLocal(doc)
		e.dirty = false
		e.logger.Debug("loaded remote snapshot", "tables", len(doc.Tables))
		return nil
	}

	doc, err := e.docs.Load()
	if err != nil {
		return err
	}
	if doc == nil {
		doc = schema.NewDatabase()
		if err := e.docs.Save(doc); err != nil {
			return fmt.Errorf("persist fresh document: %w", err)
		}
		e.logger.Debug("initialized fresh document")
	}
	e.doc = doc
	e.local = storage.NewLocal(doc)
	e.dirty = false
	return nil
}

// Save persists the local document, only if dirty since the last save.
func (e *Engine) Save() error {
	if !e.dirty {
		return nil
	}
	if err := e.docs.Save(e.doc); err != nil {
		return err
	}
	e.dirty = false
	return nil
}

// Document exposes the live document for read-only callers.
func (e *Engine) Document() *schema.Database {
	return e.doc
}

// markDirty bumps the document revision and refreshes the mutation
// timestamp. Called exactly once per successful mutating operation.
func (e *Engine) markDirty() {
	e.doc.Meta.Revision++
	e.doc.Meta.UpdatedAt = time.Now().UTC()
	e.dirty = true
}
