package operation

import (
	"encoding/json"
	"fmt"

	"f0oster/schemadesk/schema"
)

type envelope struct {
	Kind Kind `json:"kind"`
}

// Decode unmarshals one wire operation. The payload fields sit alongside the
// kind discriminator in a single flat object.
func Decode(data []byte) (Operation, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed operation: %v", schema.ErrParse, err)
	}

	var op Operation
	switch env.Kind {
	case KindCreateTable:
		op = &CreateTable{}
	case KindDropTable:
		op = &DropTable{}
	case KindAddColumn:
		op = &AddColumn{}
	case KindDropColumn:
		op = &DropColumn{}
	case KindInsert:
		op = &Insert{}
	case KindUpdate:
		op = &Update{}
	case KindDelete:
		op = &Delete{}
	case KindSelect:
		op = &Select{}
	case KindGrant:
		op = &Grant{}
	case KindRevoke:
		op = &Revoke{}
	default:
		return nil, fmt.Errorf("%w: operation kind %q", schema.ErrUnsupportedOperation, env.Kind)
	}

	if err := json.Unmarshal(data, op); err != nil {
		return nil, fmt.Errorf("%w: malformed %s operation: %v", schema.ErrParse, env.Kind, err)
	}
	return op, nil
}

// DecodePlan unmarshals an ordered operation list.
func DecodePlan(data []byte) ([]Operation, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed plan: %v", schema.ErrParse, err)
	}
	ops := make([]Operation, 0, len(raw))
	for i, item := range raw {
		op, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("plan operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
