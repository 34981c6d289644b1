package ldap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"
)

// MockSession implements the Session interface for testing.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	result, ok := args.Get(0).(*SearchResult)
	if !ok {
		return nil, args.Error(1)
	}
	return result, args.Error(1)
}

func (m *MockSession) Modify(ctx context.Context, req *ldap.ModifyRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fakeDirectory is an in-memory Session that serves a fixed entry list and
// honours the paging control, using the entry offset as the cookie.
type fakeDirectory struct {
	entries []*ldap.Entry

	// ignorePaging makes the server answer every search in one response
	// without a paging response control.
	ignorePaging bool

	// failOnCall makes the given 1-based search round trip fail with failErr.
	failOnCall int
	failErr    error

	searches []*SearchRequest
	modifies []*ldap.ModifyRequest
	closed   int
}

func (f *fakeDirectory) Search(_ context.Context, req *SearchRequest) (*SearchResult, error) {
	f.searches = append(f.searches, req)
	if f.failOnCall == len(f.searches) {
		return nil, f.failErr
	}

	paging := requestPaging(req)
	if paging == nil || f.ignorePaging {
		return &SearchResult{Entries: f.entries}, nil
	}

	offset := 0
	if len(paging.Cookie) > 0 {
		var err error
		offset, err = strconv.Atoi(string(paging.Cookie))
		if err != nil {
			return nil, fmt.Errorf("bad cookie %q", paging.Cookie)
		}
	}

	end := min(offset+int(paging.Size), len(f.entries))

	var cookie []byte
	if end < len(f.entries) {
		cookie = []byte(strconv.Itoa(end))
	}

	return &SearchResult{
		Entries:  f.entries[offset:end],
		Controls: []ldap.Control{&ldap.ControlPaging{PagingSize: 0, Cookie: cookie}},
	}, nil
}

func (f *fakeDirectory) Modify(_ context.Context, req *ldap.ModifyRequest) error {
	f.modifies = append(f.modifies, req)
	return nil
}

func (f *fakeDirectory) Close() error {
	f.closed++
	return nil
}

func requestPaging(req *SearchRequest) *pagingControl {
	for _, c := range req.Controls {
		if p, ok := c.(*pagingControl); ok {
			return p
		}
	}
	return nil
}

// makeEntries builds n person entries with a mail and two memberOf values each.
func makeEntries(n int) []*ldap.Entry {
	entries := make([]*ldap.Entry, 0, n)
	for i := range n {
		name := fmt.Sprintf("user%03d", i)
		entries = append(entries, ldap.NewEntry(
			fmt.Sprintf("CN=%s,OU=People,DC=example,DC=com", name),
			map[string][]string{
				"mail":     {name + "@example.com"},
				"memberOf": {"CN=staff,OU=Groups,DC=example,DC=com", "CN=vpn,OU=Groups,DC=example,DC=com"},
			},
		))
	}
	return entries
}

// openClient returns an open client whose session is s.
func openClient(s Session, opts ...ClientOption) *DirectoryClient {
	config := DefaultConfig()
	config.LDAPURLs = []string{"ldap://localhost"}
	opts = append([]ClientOption{WithDialer(func(context.Context, *ConnectionConfig) (Session, error) {
		return s, nil
	})}, opts...)

	c := NewClient(config, opts...)
	if err := c.Open(context.Background()); err != nil {
		panic(err)
	}
	return c
}
