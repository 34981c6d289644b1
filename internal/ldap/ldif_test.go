package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsLDIF(t *testing.T) {
	records := []*Record{
		NewRecord("CN=Jane,OU=People,DC=example,DC=com", "jane",
			Replace(NewSingleValued("mail", StringPtr("jane@example.com"))),
			Replace(NewSingleValued("description", nil)),
			Replace(NewMultiValued("memberOf", []string{"CN=staff,DC=example,DC=com"})),
		),
		NewRecord("CN=Bob,OU=People,DC=example,DC=com", "bob"),
	}

	out, err := RecordsLDIF(records)
	require.NoError(t, err)

	assert.Contains(t, out, "dn: CN=Jane,OU=People,DC=example,DC=com")
	assert.Contains(t, out, "mail: jane@example.com")
	assert.Contains(t, out, "memberOf: CN=staff,DC=example,DC=com")
	assert.Contains(t, out, "dn: CN=Bob,OU=People,DC=example,DC=com")
	assert.NotContains(t, out, "description")
	assert.NotContains(t, out, "changetype")

	empty, err := RecordsLDIF(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestChangesLDIF(t *testing.T) {
	records := []*Record{
		NewRecord("CN=Jane,OU=People,DC=example,DC=com", "jane",
			Replace(NewSingleValued("mail", StringPtr("jane@example.com"))),
			Append(NewMultiValued("otherMailbox", []string{"j@example.net"})),
			Clear("description", SingleValued),
		),
		NewRecord("CN=Bob,OU=People,DC=example,DC=com", "bob"),
	}

	out, err := ChangesLDIF(records)
	require.NoError(t, err)

	assert.Contains(t, out, "dn: CN=Jane,OU=People,DC=example,DC=com")
	assert.Contains(t, out, "changetype: modify")
	assert.Contains(t, out, "replace: mail")
	assert.Contains(t, out, "add: otherMailbox")
	assert.Contains(t, out, "delete: description")
	assert.NotContains(t, out, "CN=Bob", "records without edits are skipped")

	none, err := ChangesLDIF([]*Record{NewRecord("CN=x", "x")})
	require.NoError(t, err)
	assert.Empty(t, none)
}
