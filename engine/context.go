package engine

import (
	"fmt"
	"time"

	"f0oster/schemadesk/schema"
	"f0oster/schemadesk/storage"
)

// Context bundles everything a handler may touch for one invocation: the
// live document, the attached backends (local first, then the replicator
// when present) and the dirty callback.
type Context struct {
	Doc      *schema.Database
	Backends []storage.Backend
	// Remote reports whether a replicator is attached for this invocation.
	Remote    bool
	MarkDirty func()
}

// RequireTable returns the named table or a TableNotFound error.
func (c *Context) RequireTable(name string) (*schema.Table, error) {
	t, ok := c.Doc.Table(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", schema.ErrTableNotFound, name)
	}
	return t, nil
}

// EnsureRole returns the named role, creating it implicitly when unknown.
func (c *Context) EnsureRole(name, description string) *schema.Role {
	if role, ok := c.Doc.Roles[name]; ok {
		return role
	}
	now := time.Now().UTC()
	role := &schema.Role{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Doc.Roles[name] = role
	return role
}

// reader is the backend reads come from: the replicator when attached
// (backend-computed results), the local store otherwise.
func (c *Context) reader() storage.Backend {
	return c.Backends[len(c.Backends)-1]
}
