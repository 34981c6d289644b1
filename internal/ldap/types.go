package ldap

import (
	"context"

	"github.com/go-ldap/ldap/v3"
)

// Session is an open, authenticated connection to a directory server.
//
// Controls travel with each call: request controls are part of the
// SearchRequest and response controls are part of the SearchResult, so a
// session holds no per-search control state.
type Session interface {
	// Search performs one search round trip.
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)

	// Modify applies all changes of req to one entry in a single call.
	Modify(ctx context.Context, req *ldap.ModifyRequest) error

	// Close releases the connection.
	Close() error
}

// SearchRequest encapsulates the parameters of one search round trip.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
	Controls   []ldap.Control
}

// SearchResult contains the entries and response controls of one round trip.
type SearchResult struct {
	Entries  []*ldap.Entry
	Controls []ldap.Control
}

// SearchScope defines LDAP search scope. The zero value searches the whole subtree.
type SearchScope int

const (
	ScopeWholeSubtree SearchScope = iota
	ScopeSingleLevel
	ScopeBaseObject
)

// String returns string representation of the search scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeWholeSubtree:
		return "subtree"
	case ScopeSingleLevel:
		return "onelevel"
	case ScopeBaseObject:
		return "base"
	default:
		return "unknown"
	}
}

// ldapScope maps the scope to the go-ldap wire constant.
func (s SearchScope) ldapScope() int {
	switch s {
	case ScopeSingleLevel:
		return ldap.ScopeSingleLevel
	case ScopeBaseObject:
		return ldap.ScopeBaseObject
	default:
		return ldap.ScopeWholeSubtree
	}
}

// ParseSearchScope parses "base", "onelevel" or "subtree". An empty string means subtree.
func ParseSearchScope(s string) (SearchScope, bool) {
	switch s {
	case "", "subtree":
		return ScopeWholeSubtree, true
	case "onelevel":
		return ScopeSingleLevel, true
	case "base":
		return ScopeBaseObject, true
	default:
		return ScopeWholeSubtree, false
	}
}

// Query describes a record search.
type Query struct {
	BaseDN string
	Filter string
	Scope  SearchScope

	// Attributes lists the attributes to read and their arity. A nil or
	// empty list returns bare records holding only DN and friendly name.
	Attributes []AttributeSpec

	// FriendlyNameAttribute names the attribute whose value becomes the
	// record's friendly name. When empty the first RDN value of the DN is used.
	FriendlyNameAttribute string

	// Decoders overrides how raw attribute bytes are rendered as strings.
	// When nil, DefaultDecoders is used.
	Decoders map[string]AttributeDecoder
}

// noAttributes is the RFC 4511 selector asking the server to return no attributes.
const noAttributes = "1.1"

// requestedAttributes returns the attribute names to ask the server for.
func (q *Query) requestedAttributes() []string {
	names := make([]string, 0, len(q.Attributes)+1)
	for _, spec := range q.Attributes {
		names = append(names, spec.Name)
	}
	if q.FriendlyNameAttribute != "" {
		names = append(names, q.FriendlyNameAttribute)
	}
	if len(names) == 0 {
		return []string{noAttributes}
	}
	return names
}
