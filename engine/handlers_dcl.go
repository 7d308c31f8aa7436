package engine

import (
	"context"
	"fmt"
	"strings"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
)

// normalizePrivileges lowercases, validates against the fixed vocabulary and
// de-duplicates while preserving order.
func normalizePrivileges(privileges []string) ([]string, error) {
	if len(privileges) == 0 {
		return nil, fmt.Errorf("%w: no privileges named", schema.ErrValidation)
	}
	seen := map[string]bool{}
	var normalized []string
	for _, p := range privileges {
		name := strings.ToLower(strings.TrimSpace(p))
		if !schema.IsPrivilege(name) {
			return nil, fmt.Errorf("%w: %q", schema.ErrUnknownPrivilege, p)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
	}
	return normalized, nil
}

// handleGrant replaces the role's permission entry on the table; it does not
// merge with a previous grant. The role is created implicitly when unknown.
func handleGrant(ctx context.Context, hctx *Context, op *operation.Grant) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(op.Role) == "" {
		return nil, fmt.Errorf("%w: role name must not be empty", schema.ErrValidation)
	}
	privileges, err := normalizePrivileges(op.Privileges)
	if err != nil {
		return nil, err
	}

	hctx.EnsureRole(op.Role, op.RoleDescription)
	for _, backend := range hctx.Backends {
		if err := backend.Grant(ctx, table, op.Role, privileges); err != nil {
			return nil, err
		}
	}
	hctx.MarkDirty()

	return operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("granted %s on %q to %q", strings.Join(privileges, ", "), op.Table, op.Role)), nil
}

// handleRevoke subtracts the named privileges from the role's entry; the
// entry disappears entirely once its privilege set empties. The role itself
// persists.
func handleRevoke(ctx context.Context, hctx *Context, op *operation.Revoke) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	if _, ok := table.Permissions[op.Role]; !ok {
		return nil, fmt.Errorf("%w: role %q holds no permissions on %q", schema.ErrNoSuchPermission, op.Role, op.Table)
	}
	privileges, err := normalizePrivileges(op.Privileges)
	if err != nil {
		return nil, err
	}

	for _, backend := range hctx.Backends {
		if err := backend.Revoke(ctx, table, op.Role, privileges); err != nil {
			return nil, err
		}
	}
	hctx.MarkDirty()

	return operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("revoked %s on %q from %q", strings.Join(privileges, ", "), op.Table, op.Role)), nil
}
