package ldap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

type clientState int

const (
	stateNew clientState = iota
	stateOpen
	stateClosed
)

func (s clientState) String() string {
	switch s {
	case stateNew:
		return "new"
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ClientOption configures a DirectoryClient.
type ClientOption func(*DirectoryClient)

// WithDialer sets the function used by Open to create the session.
func WithDialer(dialer Dialer) ClientOption {
	return func(c *DirectoryClient) {
		c.dialer = dialer
	}
}

// WithPageSize overrides the configured search page size. 0 disables paging.
func WithPageSize(size uint32) ClientOption {
	return func(c *DirectoryClient) {
		c.pageSize = size
	}
}

// DirectoryClient searches and modifies directory entries as Records over a
// single session. It is single-use: Open once, Close once. A client is not
// safe for concurrent use.
type DirectoryClient struct {
	config   *ConnectionConfig
	dialer   Dialer
	pageSize uint32

	state   clientState
	session Session
}

// NewClient creates a client for config. The session is not dialed until Open.
func NewClient(config *ConnectionConfig, opts ...ClientOption) *DirectoryClient {
	if config == nil {
		config = DefaultConfig()
	}

	c := &DirectoryClient{
		config:   config,
		dialer:   DialSession,
		pageSize: config.PageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client configuration.
func (c *DirectoryClient) Config() *ConnectionConfig {
	return c.config
}

// Open dials and binds the session. It may be called once.
func (c *DirectoryClient) Open(ctx context.Context) error {
	if c.state != stateNew {
		return fmt.Errorf("%w: open on %s client", ErrInvalidOperation, c.state)
	}

	return LogOperation(ctx, subsystemLDAP, "open", map[string]any{
		"domain":          c.config.Domain,
		"ldap_urls_count": len(c.config.LDAPURLs),
		"auth_method":     c.config.GetAuthMethod().String(),
		"page_size":       c.pageSize,
	}, func() error {
		session, err := c.dialer(ctx, c.config)
		if err != nil {
			return fmt.Errorf("failed to open directory session: %w", err)
		}
		c.session = session
		c.state = stateOpen
		return nil
	})
}

// Close releases the session. Closing a closed client is a no-op; closing a
// client that was never opened marks it closed.
func (c *DirectoryClient) Close() error {
	if c.state == stateClosed {
		return nil
	}

	session := c.session
	c.session = nil
	c.state = stateClosed

	if session == nil {
		return nil
	}
	return session.Close()
}

func (c *DirectoryClient) requireOpen(operation string) error {
	if c.state != stateOpen {
		return fmt.Errorf("%w: %s on %s client", ErrInvalidOperation, operation, c.state)
	}
	return nil
}

// Search returns the records matching q. No matching entries returns a nil
// slice and no error. A Query without attributes returns bare records that
// carry only DN and friendly name.
func (c *DirectoryClient) Search(ctx context.Context, q *Query) ([]*Record, error) {
	if err := c.requireOpen("search"); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("query cannot be nil")
	}

	q = c.resolveQuery(q)

	req := &SearchRequest{
		BaseDN:     q.BaseDN,
		Scope:      q.Scope,
		Filter:     q.Filter,
		Attributes: q.requestedAttributes(),
	}

	entries, err := NewPagedSearchExecutor(c.session).Search(ctx, req, c.pageSize)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		tflog.SubsystemDebug(ctx, subsystemLDAP, "Search returned no records", map[string]any{
			"base_dn": q.BaseDN,
			"filter":  q.Filter,
		})
		return nil, nil
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		rec, err := buildRecord(entry, q)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.DN, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// SearchOne returns the first record matching q, or nil when there is none.
func (c *DirectoryClient) SearchOne(ctx context.Context, q *Query) (*Record, error) {
	records, err := c.Search(ctx, q)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// resolveQuery fills the base DN and friendly-name attribute from the
// configuration when the query leaves them empty.
func (c *DirectoryClient) resolveQuery(q *Query) *Query {
	out := *q
	if out.BaseDN == "" {
		out.BaseDN = c.config.BaseDN
	}
	if out.FriendlyNameAttribute == "" {
		out.FriendlyNameAttribute = c.config.FriendlyNameAttribute
	}
	if out.Decoders == nil {
		out.Decoders = DefaultDecoders
	}
	return &out
}

// buildRecord converts an entry into a record holding one replace edit per
// requested attribute.
func buildRecord(entry *ldap.Entry, q *Query) (*Record, error) {
	friendlyName := friendlyNameFromDN(entry.DN)
	if q.FriendlyNameAttribute != "" {
		values, err := entryValues(entry, q.FriendlyNameAttribute, q.Decoders)
		if err != nil {
			return nil, err
		}
		friendlyName = ""
		if len(values) > 0 {
			friendlyName = strings.ToLower(values[0])
		}
	}

	rec := NewRecord(entry.DN, friendlyName)
	for _, spec := range q.Attributes {
		values, err := entryValues(entry, spec.Name, q.Decoders)
		if err != nil {
			return nil, err
		}

		if spec.Arity == MultiValued {
			rec.Replace(NewMultiValued(spec.Name, values))
			continue
		}

		var value *string
		if len(values) > 0 {
			value = StringPtr(values[0])
		}
		rec.Replace(NewSingleValued(spec.Name, value))
	}

	return rec, nil
}

// entryValues returns the decoded values of the named attribute, or nil when
// the entry does not carry it. Attribute names match case-insensitively.
func entryValues(entry *ldap.Entry, name string, decoders map[string]AttributeDecoder) ([]string, error) {
	raw := entry.GetEqualFoldRawAttributeValues(name)
	if len(raw) == 0 {
		return nil, nil
	}
	return decodeValues(name, raw, decoderFor(decoders, name))
}

// ModifyRecord writes the record's edits as one modify operation. A record
// without edits is skipped.
func (c *DirectoryClient) ModifyRecord(ctx context.Context, rec *Record) error {
	if err := c.requireOpen("modify"); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	fields := map[string]any{
		"dn":         rec.DN,
		"attributes": rec.Len(),
	}

	if rec.Len() == 0 {
		tflog.SubsystemDebug(ctx, subsystemLDAP, "Record has no edits, skipping modify", fields)
		return nil
	}

	start := time.Now()
	tflog.SubsystemDebug(ctx, subsystemLDAP, "Modifying record", fields)

	if err := c.session.Modify(ctx, BuildModifyRequest(rec)); err != nil {
		protoErr := NewProtocolError("modify", err).withDN(rec.DN)
		LogLDAPError(ctx, subsystemLDAP, "modify", protoErr, fields)
		return protoErr
	}

	fields["duration_ms"] = time.Since(start).Milliseconds()
	tflog.SubsystemDebug(ctx, subsystemLDAP, "Record modified", fields)
	return nil
}

// ModifyRecords writes each record in order and stops at the first failure.
// Records before the failing one stay applied; records after it are not attempted.
func (c *DirectoryClient) ModifyRecords(ctx context.Context, records []*Record) error {
	if err := c.requireOpen("modify"); err != nil {
		return err
	}

	for i, rec := range records {
		if err := c.ModifyRecord(ctx, rec); err != nil {
			tflog.SubsystemWarn(ctx, subsystemLDAP, "Aborting batch modify", map[string]any{
				"failed_index": i,
				"applied":      i,
				"skipped":      len(records) - i - 1,
			})
			return fmt.Errorf("modify of record %d of %d failed: %w", i+1, len(records), err)
		}
	}

	return nil
}
