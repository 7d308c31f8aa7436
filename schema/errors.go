package schema

import "errors"

// Sentinel errors for the three failure classes: input/validation errors,
// state-conflict errors and backend/transport errors (the latter surface as
// wrapped driver errors). Callers match with errors.Is; detail is carried by
// the wrapping message.
var (
	ErrValidation           = errors.New("validation error")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrNotNullViolation     = errors.New("not-null violation")
	ErrParse                = errors.New("parse error")
	ErrTableNotFound        = errors.New("table not found")
	ErrTableExists          = errors.New("table already exists")
	ErrColumnNotFound       = errors.New("column not found")
	ErrDuplicateKey         = errors.New("duplicate primary key")
	ErrUnknownPrivilege     = errors.New("unknown privilege")
	ErrNoSuchPermission     = errors.New("no such permission")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)
