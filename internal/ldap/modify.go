package ldap

import (
	"github.com/go-ldap/ldap/v3"
)

// BuildModifyRequest maps the record's attribute edits to a single modify
// request, one change per attribute in insertion order.
//
//	replace -> replace with the payload (a nil single value or nil list sends no values)
//	append  -> add with the payload
//	clear   -> delete the whole attribute; any carried value is dropped
func BuildModifyRequest(rec *Record) *ldap.ModifyRequest {
	req := ldap.NewModifyRequest(rec.DN, nil)

	for _, edit := range rec.attrs {
		switch edit.Op {
		case OpAppend:
			req.Add(edit.Name, payload(edit.AttributeValue))
		case OpClear:
			req.Delete(edit.Name, []string{})
		default:
			req.Replace(edit.Name, payload(edit.AttributeValue))
		}
	}

	return req
}

// payload renders an attribute value as the list of strings sent on the wire.
func payload(attr AttributeValue) []string {
	switch v := attr.Value.(type) {
	case Single:
		if v.Value == nil {
			return []string{}
		}
		return []string{*v.Value}
	case Multi:
		if v.Values == nil {
			return []string{}
		}
		out := make([]string, len(v.Values))
		copy(out, v.Values)
		return out
	default:
		return []string{}
	}
}
