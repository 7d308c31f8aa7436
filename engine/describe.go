package engine

import (
	"fmt"
	"strings"

	"f0oster/schemadesk/operation"
)

// Describe synthesizes a human-readable query string for the history log.
// The text is never re-parsed.
func Describe(op operation.Operation) string {
	switch o := op.(type) {
	case *operation.CreateTable:
		return fmt.Sprintf("CREATE TABLE %s (%d columns)", o.Table, len(o.Columns))
	case *operation.DropTable:
		return fmt.Sprintf("DROP TABLE %s", o.Table)
	case *operation.AddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", o.Table, o.Column.Name, o.Column.Type)
	case *operation.DropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", o.Table, o.Column)
	case *operation.Insert:
		return fmt.Sprintf("INSERT INTO %s (%d rows)", o.Table, len(o.Rows))
	case *operation.Update:
		return fmt.Sprintf("UPDATE %s SET %d columns (%d conditions)", o.Table, len(o.Set), len(o.Where))
	case *operation.Delete:
		return fmt.Sprintf("DELETE FROM %s (%d conditions)", o.Table, len(o.Where))
	case *operation.Select:
		cols := "*"
		if len(o.Columns) > 0 {
			cols = strings.Join(o.Columns, ", ")
		}
		return fmt.Sprintf("SELECT %s FROM %s (%d conditions)", cols, o.Table, len(o.Where))
	case *operation.Grant:
		return fmt.Sprintf("GRANT %s ON %s TO %s", strings.Join(o.Privileges, ", "), o.Table, o.Role)
	case *operation.Revoke:
		return fmt.Sprintf("REVOKE %s ON %s FROM %s", strings.Join(o.Privileges, ", "), o.Table, o.Role)
	default:
		return fmt.Sprintf("%s %s", strings.ToUpper(string(op.Kind())), op.Target())
	}
}
