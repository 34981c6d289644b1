package ldap

import (
	"fmt"
	"strings"
)

// EditOp is the modification applied to an attribute on write.
type EditOp int

const (
	OpReplace EditOp = iota // Overwrite the attribute with the carried value
	OpAppend                // Add the carried values; fails if a value already exists
	OpClear                 // Remove the whole attribute; the carried value is ignored
)

// String returns string representation of the edit operation.
func (o EditOp) String() string {
	switch o {
	case OpReplace:
		return "replace"
	case OpAppend:
		return "append"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// ParseEditOp parses an edit operation name, ignoring case.
func ParseEditOp(s string) (EditOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace", "set", "":
		return OpReplace, nil
	case "append", "add":
		return OpAppend, nil
	case "clear", "remove":
		return OpClear, nil
	default:
		return OpReplace, fmt.Errorf("unknown edit operation: %q", s)
	}
}

// AttributeEdit is an attribute annotated with the modification to apply.
type AttributeEdit struct {
	AttributeValue
	Op EditOp
}

// Replace returns an edit that overwrites the attribute with its value.
func Replace(attr AttributeValue) AttributeEdit {
	return AttributeEdit{AttributeValue: attr, Op: OpReplace}
}

// Append returns an edit that adds the attribute's values.
func Append(attr AttributeValue) AttributeEdit {
	return AttributeEdit{AttributeValue: attr, Op: OpAppend}
}

// Clear returns an edit that removes the named attribute entirely.
func Clear(name string, arity Arity) AttributeEdit {
	attr := NewSingleValued(name, nil)
	if arity == MultiValued {
		attr = NewMultiValued(name, nil)
	}
	return AttributeEdit{AttributeValue: attr, Op: OpClear}
}

// String returns a debug rendering of the edit.
func (e AttributeEdit) String() string {
	return fmt.Sprintf("%s %s", e.Op, e.AttributeValue.String())
}
