package ldap

import (
	"fmt"
	"strings"
)

// Record is a directory entry exposed as a typed record: its distinguished
// name, a lower-cased friendly name, and an insertion-ordered set of
// attribute edits keyed by attribute name.
//
// Records returned by a search carry OpReplace edits. Records built by the
// caller for a write only need the attributes to be edited.
type Record struct {
	DN           string
	FriendlyName string

	attrs []AttributeEdit
	index map[string]int
}

// NewRecord creates a record with the given attributes. Later attributes with
// a duplicate name overwrite earlier ones.
func NewRecord(dn, friendlyName string, attrs ...AttributeEdit) *Record {
	r := &Record{
		DN:           dn,
		FriendlyName: friendlyName,
		index:        make(map[string]int, len(attrs)),
	}
	for _, attr := range attrs {
		r.Put(attr)
	}
	return r
}

// Len returns the number of attributes held by the record.
func (r *Record) Len() int {
	return len(r.attrs)
}

// Attributes returns a copy of the record's attributes in insertion order.
func (r *Record) Attributes() []AttributeEdit {
	out := make([]AttributeEdit, len(r.attrs))
	copy(out, r.attrs)
	return out
}

// Attribute returns the named attribute. Lookup is case-sensitive.
func (r *Record) Attribute(name string) (AttributeEdit, bool) {
	i, ok := r.index[name]
	if !ok {
		return AttributeEdit{}, false
	}
	return r.attrs[i], true
}

// Put inserts an attribute, or overwrites an existing one in place.
func (r *Record) Put(attr AttributeEdit) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[attr.Name]; ok {
		r.attrs[i] = attr
		return
	}
	r.index[attr.Name] = len(r.attrs)
	r.attrs = append(r.attrs, attr)
}

// Replace records a replace edit for attr.
func (r *Record) Replace(attr AttributeValue) {
	r.Put(Replace(attr))
}

// Append records an append edit for attr.
func (r *Record) Append(attr AttributeValue) {
	r.Put(Append(attr))
}

// Clear records a clear edit for the named attribute.
func (r *Record) Clear(name string) {
	arity := SingleValued
	if existing, ok := r.Attribute(name); ok {
		arity = existing.Arity()
	}
	r.Put(Clear(name, arity))
}

// SetAttributes drops all attributes and stores attrs in their place.
func (r *Record) SetAttributes(attrs ...AttributeEdit) {
	r.ClearAttributes()
	for _, attr := range attrs {
		r.Put(attr)
	}
}

// ClearAttributes drops all attributes from the record.
func (r *Record) ClearAttributes() {
	r.attrs = nil
	r.index = make(map[string]int)
}

// SetSingle sets the value of a single-valued attribute, adding it as a
// replace edit if absent. An existing attribute keeps its edit operation.
func (r *Record) SetSingle(name string, value *string) error {
	i, ok := r.index[name]
	if !ok {
		r.Put(Replace(NewSingleValued(name, value)))
		return nil
	}
	if r.attrs[i].Arity() != SingleValued {
		return fmt.Errorf("%w: attribute %q is not single-valued", ErrInvalidOperation, name)
	}
	r.attrs[i].Value = Single{Value: value}
	return nil
}

// SetMulti sets the values of a multi-valued attribute, adding it as a
// replace edit if absent. An existing attribute keeps its edit operation.
func (r *Record) SetMulti(name string, values []string) error {
	i, ok := r.index[name]
	if !ok {
		r.Put(Replace(NewMultiValued(name, values)))
		return nil
	}
	if r.attrs[i].Arity() != MultiValued {
		return fmt.Errorf("%w: attribute %q is not multi-valued", ErrInvalidOperation, name)
	}
	r.attrs[i].Value = Multi{Values: values}
	return nil
}

// RenameAttribute renames an attribute, keeping its value and operation.
// The renamed attribute moves to the end of the insertion order.
func (r *Record) RenameAttribute(oldName, newName string) error {
	i, ok := r.index[oldName]
	if !ok {
		return fmt.Errorf("%w: attribute %q not found on %s", ErrInvalidOperation, oldName, r.DN)
	}

	attr := r.attrs[i]
	r.remove(i)
	attr.Name = newName
	r.Put(attr)
	return nil
}

func (r *Record) remove(i int) {
	name := r.attrs[i].Name
	r.attrs = append(r.attrs[:i], r.attrs[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.attrs); j++ {
		r.index[r.attrs[j].Name] = j
	}
}

// String returns a debug rendering of the record.
func (r *Record) String() string {
	parts := make([]string, len(r.attrs))
	for i, attr := range r.attrs {
		parts[i] = attr.String()
	}
	return fmt.Sprintf("[Record %s %s]", r.FriendlyName, strings.Join(parts, "; "))
}

// friendlyNameFromDN returns the value of the first RDN component: the text
// after the first '=' and before the first ','. The DN is assumed to start
// with a key=value component; malformed input still yields a substring.
func friendlyNameFromDN(dn string) string {
	start := strings.Index(dn, "=") + 1
	end := strings.Index(dn, ",")
	if end < start {
		end = len(dn)
	}
	return strings.ToLower(dn[start:end])
}
