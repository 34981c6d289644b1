package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFields(t *testing.T) {
	fields := map[string]any{
		"dn":       "CN=Jane,DC=example,DC=com",
		"password": "hunter2",
		"url":      "ldap://dc1?password=hunter2",
		"count":    3,
	}

	got := SanitizeFields(fields)

	assert.Equal(t, "CN=Jane,DC=example,DC=com", got["dn"])
	assert.Equal(t, "[REDACTED]", got["password"])
	assert.Equal(t, "[REDACTED]", got["url"])
	assert.Equal(t, 3, got["count"])
	assert.Equal(t, "hunter2", fields["password"], "input is not modified")
	assert.Empty(t, SanitizeFields(nil))
}
