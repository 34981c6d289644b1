package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory represents different categories of LDAP errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryConflict       ErrorCategory = "conflict"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// ProtocolError is a failure reported by the directory session, annotated
// with the stage of the client operation that hit it.
type ProtocolError struct {
	Operation string        // search, modify, bind, connect
	Page      int           // 1-based page number of a failed search round trip, 0 otherwise
	DN        string        // Entry or base DN involved
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code, 0 for transport failures
	Message   string        // Human-readable message
	ServerMsg string        // Server-provided message
	Cause     error         // Underlying error
}

func (e *ProtocolError) Error() string {
	var parts []string

	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("LDAP %s failed (code %d)", e.Operation, e.LDAPCode))
	} else {
		parts = append(parts, fmt.Sprintf("LDAP %s failed", e.Operation))
	}

	if e.Page > 0 {
		parts = append(parts, fmt.Sprintf("page %d", e.Page))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.ServerMsg))
	}

	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// NewProtocolError wraps err with the failing operation. It returns nil for a nil error.
func NewProtocolError(operation string, err error) *ProtocolError {
	if err == nil {
		return nil
	}

	protoErr := &ProtocolError{
		Operation: operation,
		Cause:     err,
	}

	var ldapResultErr *ldap.Error
	if errors.As(err, &ldapResultErr) {
		protoErr.LDAPCode = ldapResultErr.ResultCode
		if ldapResultErr.Err != nil {
			protoErr.ServerMsg = ldapResultErr.Err.Error()
		}
		protoErr.Category = categorizeError(ldapResultErr.ResultCode)
		protoErr.Message = getLDAPCodeMessage(ldapResultErr.ResultCode)
	} else {
		// Non-LDAP error, categorize by error message
		protoErr.Category = categorizeGenericError(err)
		protoErr.Message = err.Error()
	}

	return protoErr
}

// withPage records the page number of a failed search round trip.
func (e *ProtocolError) withPage(page int) *ProtocolError {
	e.Page = page
	return e
}

// withDN records the DN involved in the failed operation.
func (e *ProtocolError) withDN(dn string) *ProtocolError {
	e.DN = dn
	return e
}

// resultCode describes a directory result code the client expects from
// search, modify and bind.
type resultCode struct {
	category ErrorCategory
	message  string
}

var resultCodes = map[uint16]resultCode{
	ldap.LDAPResultOperationsError:             {ErrorCategoryServer, "Server reported an operations error"},
	ldap.LDAPResultProtocolError:               {ErrorCategoryConnection, "Request violated the LDAP protocol"},
	ldap.LDAPResultTimeLimitExceeded:           {ErrorCategoryServer, "Search exceeded the server time limit"},
	ldap.LDAPResultSizeLimitExceeded:           {ErrorCategoryServer, "Search exceeded the server size limit"},
	ldap.LDAPResultAdminLimitExceeded:          {ErrorCategoryServer, "Search exceeded an administrative limit"},
	ldap.LDAPResultStrongAuthRequired:          {ErrorCategoryAuthentication, "Server requires a stronger bind"},
	ldap.LDAPResultInappropriateAuthentication: {ErrorCategoryAuthentication, "Bind method not accepted"},
	ldap.LDAPResultInvalidCredentials:          {ErrorCategoryAuthentication, "Bind credentials rejected"},
	ldap.LDAPResultInsufficientAccessRights:    {ErrorCategoryPermission, "Bound identity lacks access to the entry"},
	ldap.LDAPResultUnwillingToPerform:          {ErrorCategoryPermission, "Server refused the operation"},
	ldap.LDAPResultNoSuchObject:                {ErrorCategoryNotFound, "Entry does not exist"},
	ldap.LDAPResultNoSuchAttribute:             {ErrorCategoryNotFound, "Entry does not hold the attribute or value"},
	ldap.LDAPResultUndefinedAttributeType:      {ErrorCategoryNotFound, "Attribute type is not in the schema"},
	ldap.LDAPResultAttributeOrValueExists:      {ErrorCategoryConflict, "Entry already holds the value"},
	ldap.LDAPResultObjectClassViolation:        {ErrorCategoryConflict, "Edit breaks the entry's object class rules"},
	ldap.LDAPResultEntryAlreadyExists:          {ErrorCategoryConflict, "Entry already exists"},
	ldap.LDAPResultInvalidAttributeSyntax:      {ErrorCategoryValidation, "Value does not match the attribute syntax"},
	ldap.LDAPResultConstraintViolation:         {ErrorCategoryValidation, "Value breaks an attribute constraint"},
	ldap.LDAPResultInvalidDNSyntax:             {ErrorCategoryValidation, "Malformed DN"},
	ldap.LDAPResultFilterError:                 {ErrorCategoryValidation, "Malformed search filter"},
	ldap.LDAPResultBusy:                        {ErrorCategoryServer, "Server is busy"},
	ldap.LDAPResultUnavailable:                 {ErrorCategoryServer, "Server is unavailable"},
	ldap.LDAPResultServerDown:                  {ErrorCategoryConnection, "Server is unreachable"},
	ldap.LDAPResultTimeout:                     {ErrorCategoryConnection, "Request timed out"},
	ldap.LDAPResultConnectError:                {ErrorCategoryConnection, "Could not connect"},
}

// categorizeError maps an LDAP result code to an error category.
func categorizeError(code uint16) ErrorCategory {
	if rc, ok := resultCodes[code]; ok {
		return rc.category
	}
	return ErrorCategoryUnknown
}

// transportHints classifies errors that carry no result code, in order.
var transportHints = []struct {
	category ErrorCategory
	words    []string
}{
	{ErrorCategoryConnection, []string{"connection", "network", "timeout", "broken pipe", "eof"}},
	{ErrorCategoryAuthentication, []string{"authentication", "credentials", "password", "kerberos"}},
	{ErrorCategoryPermission, []string{"permission", "access", "denied"}},
}

// categorizeGenericError classifies a transport or client error by its text.
func categorizeGenericError(err error) ErrorCategory {
	msg := strings.ToLower(err.Error())
	for _, hint := range transportHints {
		for _, word := range hint.words {
			if strings.Contains(msg, word) {
				return hint.category
			}
		}
	}
	return ErrorCategoryUnknown
}

// getLDAPCodeMessage describes an LDAP result code. Codes outside the
// client's operations use the library's name for them.
func getLDAPCodeMessage(code uint16) string {
	if rc, ok := resultCodes[code]; ok {
		return rc.message
	}
	if name, ok := ldap.LDAPResultCodeMap[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown LDAP error (code %d)", code)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Category
	}

	// Check for raw go-ldap library errors
	var ldapResultErr *ldap.Error
	if errors.As(err, &ldapResultErr) {
		return categorizeError(ldapResultErr.ResultCode)
	}

	return categorizeGenericError(err)
}

// IsDuplicateValueError reports whether err is the server rejecting an
// append because the attribute already holds the value.
func IsDuplicateValueError(err error) bool {
	var ldapResultErr *ldap.Error
	return errors.As(err, &ldapResultErr) && ldapResultErr.ResultCode == ldap.LDAPResultAttributeOrValueExists
}

// IsNoSuchObjectError reports whether err is the server saying the entry
// itself does not exist. A missing attribute is not such an error.
func IsNoSuchObjectError(err error) bool {
	var ldapResultErr *ldap.Error
	return errors.As(err, &ldapResultErr) && ldapResultErr.ResultCode == ldap.LDAPResultNoSuchObject
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsConflictError checks if an error indicates a conflict (already exists).
func IsConflictError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConflict
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsPermissionError checks if an error indicates a permission problem.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}
