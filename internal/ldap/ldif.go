package ldap

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldif"
)

// RecordsLDIF renders records as LDIF content records. Attributes without a
// value are omitted; attribute order follows the record.
func RecordsLDIF(records []*Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	l := &ldif.LDIF{Entries: make([]*ldif.Entry, 0, len(records))}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		l.Entries = append(l.Entries, &ldif.Entry{Entry: recordEntry(rec)})
	}

	out, err := ldif.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to marshal records as LDIF: %w", err)
	}
	return out, nil
}

// ChangesLDIF renders the modify operations ModifyRecords would send for
// records as LDIF change records. Records without edits are skipped.
func ChangesLDIF(records []*Record) (string, error) {
	l := &ldif.LDIF{}
	for _, rec := range records {
		if rec == nil || rec.Len() == 0 {
			continue
		}
		l.Entries = append(l.Entries, &ldif.Entry{Modify: BuildModifyRequest(rec)})
	}

	if len(l.Entries) == 0 {
		return "", nil
	}

	out, err := ldif.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to marshal changes as LDIF: %w", err)
	}
	return out, nil
}

func recordEntry(rec *Record) *ldap.Entry {
	entry := &ldap.Entry{DN: rec.DN}
	for _, attr := range rec.attrs {
		values := payload(attr.AttributeValue)
		if len(values) == 0 {
			continue
		}
		entry.Attributes = append(entry.Attributes, ldap.NewEntryAttribute(attr.Name, values))
	}
	return entry
}
