/*
Package ldap reads and writes directory entries as typed records.

# Records

A Record is a directory entry identified by its DN, with a lower-cased
friendly name and an insertion-ordered set of AttributeEdit values. Each
edit pairs an AttributeValue, single- or multi-valued, with the operation to
apply on write: replace, append or clear.

# Searching

DirectoryClient.Search runs a Query through a PagedSearchExecutor. With a
non-zero page size the executor drives the simple paged results control
(RFC 2696): the first request is non-critical, every continuation is critical
and carries the server's cookie, and the loop stops on an empty or missing
cookie. A failure on any page discards what was read and returns a
*ProtocolError naming the page. No matches is a nil result, not an error.

The friendly name comes from Query.FriendlyNameAttribute when set, otherwise
from the value of the first RDN. objectGUID and objectSid are rendered as
text by DefaultDecoders.

# Modifying

BuildModifyRequest turns a record into one modify request with a change per
attribute. ModifyRecords applies records in order and stops at the first
failure without rolling back earlier records. IsDuplicateValueError detects an
append of a value the attribute already holds.

# Sessions

The client talks to the server only through the Session interface. DialSession
provides the go-ldap implementation: explicit URLs or SRV discovery, LDAPS or
StartTLS, and simple, Kerberos (GSSAPI) or external binds. A client is opened
once, closed once, and must not be shared between goroutines.

# Example Usage

	config := ldap.DefaultConfig()
	config.LDAPURLs = []string{"ldaps://dc1.example.com"}
	config.Username = "CN=svc,OU=Service,DC=example,DC=com"
	config.Password = "password"

	client := ldap.NewClient(config)
	if err := client.Open(ctx); err != nil {
		return err
	}
	defer client.Close()

	records, err := client.Search(ctx, &ldap.Query{
		BaseDN: "OU=People,DC=example,DC=com",
		Filter: "(objectClass=user)",
		Attributes: []ldap.AttributeSpec{
			{Name: "mail", Arity: ldap.SingleValued},
			{Name: "memberOf", Arity: ldap.MultiValued},
		},
	})
*/
package ldap
