package ldap

import (
	"context"
	"fmt"
	"time"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// pagingControl is the RFC 2696 simple paged results request control.
// go-ldap's ControlPaging always encodes as non-critical; continuation
// requests must be critical so the server either honours the cookie or fails.
type pagingControl struct {
	Size        uint32
	Cookie      []byte
	Criticality bool
}

func newPagingControl(size uint32, cookie []byte, critical bool) *pagingControl {
	return &pagingControl{Size: size, Cookie: cookie, Criticality: critical}
}

// GetControlType returns the OID
func (c *pagingControl) GetControlType() string {
	return ldap.ControlTypePaging
}

// Encode returns the ber packet representation
func (c *pagingControl) Encode() *ber.Packet {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, ldap.ControlTypePaging, "Control Type (Paging)"))
	if c.Criticality {
		packet.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, true, "Criticality"))
	}

	value := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Control Value (Paging)")
	seq := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Search Control Value")
	seq.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, int64(c.Size), "Paging Size"))
	cookie := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Cookie")
	cookie.Value = c.Cookie
	cookie.Data.Write(c.Cookie)
	seq.AppendChild(cookie)
	value.AppendChild(seq)

	packet.AppendChild(value)
	return packet
}

// String returns a human-readable description
func (c *pagingControl) String() string {
	return fmt.Sprintf("Control Type: %s (%q)  Criticality: %t  PagingSize: %d  Cookie: %q",
		"Paging", ldap.ControlTypePaging, c.Criticality, c.Size, c.Cookie)
}

// PagedSearchExecutor runs a search as a sequence of simple-paged-results
// round trips over a Session and returns the concatenated entries.
//
// All paging state lives in the local variables of one Search call, so an
// executor holds nothing but the session.
type PagedSearchExecutor struct {
	session Session
}

// NewPagedSearchExecutor creates an executor over session.
func NewPagedSearchExecutor(session Session) *PagedSearchExecutor {
	return &PagedSearchExecutor{session: session}
}

// Search executes req. A pageSize of 0 performs a single unpaged round trip.
//
// In paged mode the first request carries a non-critical paging control, and
// every continuation carries a critical one with the cookie from the previous
// response. The loop ends when the response has no paging control or an empty
// cookie. A failed round trip returns the error alone; entries gathered from
// earlier pages are discarded. No matches yields an empty result, not an error.
func (e *PagedSearchExecutor) Search(ctx context.Context, req *SearchRequest, pageSize uint32) ([]*ldap.Entry, error) {
	if req == nil {
		return nil, fmt.Errorf("search request cannot be nil")
	}

	start := time.Now()
	fields := map[string]any{
		"base_dn":    req.BaseDN,
		"filter":     req.Filter,
		"scope":      req.Scope.String(),
		"attributes": req.Attributes,
		"page_size":  pageSize,
	}

	if pageSize == 0 {
		tflog.SubsystemDebug(ctx, subsystemLDAP, "Starting unpaged search", fields)

		result, err := e.session.Search(ctx, withControls(req, nil))
		if err != nil {
			protoErr := NewProtocolError("search", err).withDN(req.BaseDN)
			LogLDAPError(ctx, subsystemLDAP, "search", protoErr, fields)
			return nil, protoErr
		}

		fields["total_entries"] = len(result.Entries)
		fields["duration_ms"] = time.Since(start).Milliseconds()
		tflog.SubsystemDebug(ctx, subsystemLDAP, "Unpaged search completed", fields)
		return result.Entries, nil
	}

	tflog.SubsystemDebug(ctx, subsystemLDAP, "Starting paged search", fields)

	var allEntries []*ldap.Entry
	control := newPagingControl(pageSize, nil, false)
	pageNum := 0

	for {
		pageNum++
		pageFields := map[string]any{
			"page_number":          pageNum,
			"total_entries_so_far": len(allEntries),
			"critical":             control.Criticality,
		}

		tflog.SubsystemTrace(ctx, subsystemLDAP, "Starting search page", pageFields)

		result, err := e.session.Search(ctx, withControls(req, control))
		if err != nil {
			protoErr := NewProtocolError("search", err).withPage(pageNum).withDN(req.BaseDN)
			LogLDAPError(ctx, subsystemLDAP, "paged_search", protoErr, pageFields)
			return nil, protoErr
		}

		allEntries = append(allEntries, result.Entries...)

		pageFields["entries_in_page"] = len(result.Entries)
		pageFields["total_entries"] = len(allEntries)
		tflog.SubsystemTrace(ctx, subsystemLDAP, "Completed search page", pageFields)

		cookie := responseCookie(result.Controls)
		if len(cookie) == 0 {
			break
		}

		control = newPagingControl(pageSize, cookie, true)
	}

	fields["total_entries"] = len(allEntries)
	fields["pages_processed"] = pageNum
	fields["duration_ms"] = time.Since(start).Milliseconds()
	tflog.SubsystemDebug(ctx, subsystemLDAP, "Paged search completed", fields)

	return allEntries, nil
}

// responseCookie extracts the paging cookie from response controls. A missing
// or unreadable control yields nil.
func responseCookie(controls []ldap.Control) []byte {
	switch c := ldap.FindControl(controls, ldap.ControlTypePaging).(type) {
	case *ldap.ControlPaging:
		return c.Cookie
	case *pagingControl:
		return c.Cookie
	default:
		return nil
	}
}

// withControls returns a copy of req whose paging control is replaced by
// control. Other caller-supplied controls are kept.
func withControls(req *SearchRequest, control *pagingControl) *SearchRequest {
	out := *req
	out.Controls = make([]ldap.Control, 0, len(req.Controls)+1)
	for _, c := range req.Controls {
		if c.GetControlType() != ldap.ControlTypePaging {
			out.Controls = append(out.Controls, c)
		}
	}
	if control != nil {
		out.Controls = append(out.Controls, control)
	}
	return &out
}
