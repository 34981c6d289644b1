package ldap

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidOperation is returned when a value is accessed with the wrong
// arity or when a DirectoryClient is used in the wrong lifecycle state.
// It signals a programming error rather than a recoverable condition.
var ErrInvalidOperation = errors.New("invalid operation")

// Arity describes whether an attribute carries one value or a list of values.
type Arity int

const (
	SingleValued Arity = iota // One optional string value
	MultiValued               // Ordered list of string values
)

// String returns string representation of the arity.
func (a Arity) String() string {
	switch a {
	case SingleValued:
		return "single"
	case MultiValued:
		return "multi"
	default:
		return "unknown"
	}
}

// Value is the payload of an AttributeValue. It is either Single or Multi;
// use a type switch to access it.
type Value interface {
	Arity() Arity
	isValue()
}

// Single is a single-valued payload. A nil Value means the attribute has no value.
type Single struct {
	Value *string
}

// Multi is a multi-valued payload. A nil Values slice means the attribute is
// absent, which is distinct from a present attribute with no values.
type Multi struct {
	Values []string
}

func (Single) Arity() Arity { return SingleValued }
func (Multi) Arity() Arity  { return MultiValued }
func (Single) isValue()     {}
func (Multi) isValue()      {}

// AttributeValue is a named directory attribute with an arity-tagged payload.
type AttributeValue struct {
	Name  string
	Value Value
}

// NewSingleValued creates a single-valued attribute. value may be nil.
func NewSingleValued(name string, value *string) AttributeValue {
	return AttributeValue{Name: name, Value: Single{Value: value}}
}

// NewMultiValued creates a multi-valued attribute. values may be nil.
func NewMultiValued(name string, values []string) AttributeValue {
	return AttributeValue{Name: name, Value: Multi{Values: values}}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Arity returns the arity of the attribute payload.
func (a AttributeValue) Arity() Arity {
	if a.Value == nil {
		return SingleValued
	}
	return a.Value.Arity()
}

// Single returns the single value, or ErrInvalidOperation if the attribute is multi-valued.
func (a AttributeValue) Single() (*string, error) {
	switch v := a.Value.(type) {
	case Single:
		return v.Value, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: attribute %q is not single-valued", ErrInvalidOperation, a.Name)
	}
}

// Multi returns the list of values, or ErrInvalidOperation if the attribute is single-valued.
func (a AttributeValue) Multi() ([]string, error) {
	if v, ok := a.Value.(Multi); ok {
		return v.Values, nil
	}
	return nil, fmt.Errorf("%w: attribute %q is not multi-valued", ErrInvalidOperation, a.Name)
}

// HasSameValue reports whether other carries the same content as a.
//
// Single values match when both are nil or both hold equal strings. Multi
// values match when both are nil, or both have the same length and every
// element of other is contained in a. The multi comparison is a containment
// check, not multiset equality: ["a","a","b"] and ["a","b","b"] compare equal.
// Comparing different arities returns ErrInvalidOperation.
func (a AttributeValue) HasSameValue(other AttributeValue) (bool, error) {
	if a.Arity() != other.Arity() {
		return false, fmt.Errorf("%w: cannot compare %s-valued attribute %q with %s-valued attribute %q",
			ErrInvalidOperation, a.Arity(), a.Name, other.Arity(), other.Name)
	}

	if a.Arity() == SingleValued {
		mine, _ := a.Single()
		theirs, _ := other.Single()
		if mine == nil || theirs == nil {
			return mine == nil && theirs == nil, nil
		}
		return *mine == *theirs, nil
	}

	mine, _ := a.Multi()
	theirs, _ := other.Multi()
	if mine == nil || theirs == nil {
		return mine == nil && theirs == nil, nil
	}
	if len(mine) != len(theirs) {
		return false, nil
	}
	for _, v := range theirs {
		if !slices.Contains(mine, v) {
			return false, nil
		}
	}
	return true, nil
}

// String returns a debug rendering of the attribute.
func (a AttributeValue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)=", a.Name, a.Arity())
	switch v := a.Value.(type) {
	case Single:
		if v.Value == nil {
			b.WriteString("<nil>")
		} else {
			b.WriteString(*v.Value)
		}
	case Multi:
		if v.Values == nil {
			b.WriteString("<nil>")
		} else {
			fmt.Fprintf(&b, "[%s]", strings.Join(v.Values, ", "))
		}
	default:
		b.WriteString("<nil>")
	}
	return b.String()
}

// AttributeSpec names an attribute to read and the arity it should be read with.
type AttributeSpec struct {
	Name  string
	Arity Arity
}
