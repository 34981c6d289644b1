package ldap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
)

func TestNewProtocolError(t *testing.T) {
	tests := []struct {
		name         string
		operation    string
		err          error
		wantNil      bool
		wantCode     uint16
		wantCategory ErrorCategory
	}{
		{
			name:      "nil error",
			operation: "search",
			err:       nil,
			wantNil:   true,
		},
		{
			name:         "ldap error",
			operation:    "bind",
			err:          ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password")),
			wantCode:     ldap.LDAPResultInvalidCredentials,
			wantCategory: ErrorCategoryAuthentication,
		},
		{
			name:         "wrapped ldap error",
			operation:    "modify",
			err:          fmt.Errorf("session: %w", ldap.NewError(ldap.LDAPResultAttributeOrValueExists, errors.New("value exists"))),
			wantCode:     ldap.LDAPResultAttributeOrValueExists,
			wantCategory: ErrorCategoryConflict,
		},
		{
			name:         "generic error",
			operation:    "connect",
			err:          errors.New("connection refused"),
			wantCategory: ErrorCategoryConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewProtocolError(tt.operation, tt.err)

			if tt.wantNil {
				if result != nil {
					t.Errorf("NewProtocolError() = %v, want nil", result)
				}
				return
			}

			if result == nil {
				t.Fatal("NewProtocolError() = nil, want non-nil")
			}

			if result.Operation != tt.operation {
				t.Errorf("Operation = %s, want %s", result.Operation, tt.operation)
			}

			if result.Cause != tt.err {
				t.Errorf("Cause = %v, want %v", result.Cause, tt.err)
			}

			if result.LDAPCode != tt.wantCode {
				t.Errorf("LDAPCode = %d, want %d", result.LDAPCode, tt.wantCode)
			}

			if result.Category != tt.wantCategory {
				t.Errorf("Category = %s, want %s", result.Category, tt.wantCategory)
			}
		})
	}
}

func TestProtocolError_Error(t *testing.T) {
	tests := []struct {
		name     string
		protoErr *ProtocolError
		want     string
	}{
		{
			name: "basic error",
			protoErr: &ProtocolError{
				Operation: "search",
				Message:   "operation failed",
			},
			want: "LDAP search failed - operation failed",
		},
		{
			name: "error with code",
			protoErr: &ProtocolError{
				Operation: "bind",
				LDAPCode:  ldap.LDAPResultInvalidCredentials,
				Message:   "authentication failed",
			},
			want: "LDAP bind failed (code 49) - authentication failed",
		},
		{
			name: "search error with page",
			protoErr: &ProtocolError{
				Operation: "search",
				Page:      3,
				Message:   "Server is busy",
				DN:        "dc=example,dc=com",
			},
			want: "LDAP search failed - page 3 - Server is busy - DN: dc=example,dc=com",
		},
		{
			name: "error with server message",
			protoErr: &ProtocolError{
				Operation: "modify",
				Message:   "validation failed",
				ServerMsg: "attribute required",
			},
			want: "LDAP modify failed - validation failed - server: attribute required",
		},
		{
			name: "error with DN",
			protoErr: &ProtocolError{
				Operation: "modify",
				Message:   "access denied",
				DN:        "cn=user,dc=example,dc=com",
			},
			want: "LDAP modify failed - access denied - DN: cn=user,dc=example,dc=com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.protoErr.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProtocolError_Unwrap(t *testing.T) {
	cause := ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object"))
	err := error(NewProtocolError("search", cause).withPage(2).withDN("ou=missing,dc=example,dc=com"))

	var ldapErr *ldap.Error
	if !errors.As(err, &ldapErr) {
		t.Fatal("errors.As() did not reach *ldap.Error")
	}
	if ldapErr.ResultCode != ldap.LDAPResultNoSuchObject {
		t.Errorf("ResultCode = %d, want %d", ldapErr.ResultCode, ldap.LDAPResultNoSuchObject)
	}

	var protoErr *ProtocolError
	if !errors.As(fmt.Errorf("outer: %w", err), &protoErr) {
		t.Fatal("errors.As() did not reach *ProtocolError")
	}
	if protoErr.Page != 2 || protoErr.DN != "ou=missing,dc=example,dc=com" {
		t.Errorf("Page/DN = %d/%q, want 2/%q", protoErr.Page, protoErr.DN, "ou=missing,dc=example,dc=com")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		code uint16
		want ErrorCategory
	}{
		{"authentication error", ldap.LDAPResultInvalidCredentials, ErrorCategoryAuthentication},
		{"permission error", ldap.LDAPResultInsufficientAccessRights, ErrorCategoryPermission},
		{"not found error", ldap.LDAPResultNoSuchObject, ErrorCategoryNotFound},
		{"missing attribute", ldap.LDAPResultNoSuchAttribute, ErrorCategoryNotFound},
		{"duplicate value", ldap.LDAPResultAttributeOrValueExists, ErrorCategoryConflict},
		{"validation error", ldap.LDAPResultConstraintViolation, ErrorCategoryValidation},
		{"server error", ldap.LDAPResultBusy, ErrorCategoryServer},
		{"connection error", ldap.LDAPResultConnectError, ErrorCategoryConnection},
		{"filter error", ldap.LDAPResultFilterError, ErrorCategoryValidation},
		{"success is not categorized", ldap.LDAPResultSuccess, ErrorCategoryUnknown},
		{"unknown error", 9999, ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.code)
			if got != tt.want {
				t.Errorf("categorizeError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategorizeGenericError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"connection error", errors.New("connection refused"), ErrorCategoryConnection},
		{"timeout error", errors.New("operation timeout"), ErrorCategoryConnection},
		{"closed stream", errors.New("unexpected EOF"), ErrorCategoryConnection},
		{"kerberos failure", errors.New("kerberos: KDC_ERR_PREAUTH_FAILED"), ErrorCategoryAuthentication},
		{"authentication error", errors.New("invalid credentials"), ErrorCategoryAuthentication},
		{"permission error", errors.New("access denied"), ErrorCategoryPermission},
		{"unknown error", errors.New("something went wrong"), ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeGenericError(tt.err)
			if got != tt.want {
				t.Errorf("categorizeGenericError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{
			name: "nil error",
			err:  nil,
			want: ErrorCategoryUnknown,
		},
		{
			name: "protocol error",
			err:  NewProtocolError("bind", ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password"))),
			want: ErrorCategoryAuthentication,
		},
		{
			name: "raw ldap error",
			err:  ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object")),
			want: ErrorCategoryNotFound,
		},
		{
			name: "generic error",
			err:  errors.New("connection refused"),
			want: ErrorCategoryConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetErrorCategory(tt.err)
			if got != tt.want {
				t.Errorf("GetErrorCategory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorHelperFunctions(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		isDuplicate bool
		isNoObject  bool
		isNotFound  bool
		isConflict  bool
		isAuth      bool
		isPerm      bool
	}{
		{
			name:       "not found error",
			err:        NewProtocolError("search", ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("object not found"))),
			isNoObject: true,
			isNotFound: true,
		},
		{
			name:       "missing attribute is not a missing entry",
			err:        NewProtocolError("modify", ldap.NewError(ldap.LDAPResultNoSuchAttribute, errors.New("no such attribute"))),
			isNotFound: true,
		},
		{
			name:        "duplicate value error",
			err:         NewProtocolError("modify", ldap.NewError(ldap.LDAPResultAttributeOrValueExists, errors.New("value exists"))),
			isDuplicate: true,
			isConflict:  true,
		},
		{
			name:       "entry exists is not a duplicate value",
			err:        NewProtocolError("modify", ldap.NewError(ldap.LDAPResultEntryAlreadyExists, errors.New("entry exists"))),
			isConflict: true,
		},
		{
			name:   "authentication error",
			err:    NewProtocolError("bind", ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password"))),
			isAuth: true,
		},
		{
			name:   "permission error",
			err:    NewProtocolError("modify", ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("access denied"))),
			isPerm: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsDuplicateValueError(tt.err) != tt.isDuplicate {
				t.Errorf("IsDuplicateValueError() = %v, want %v", IsDuplicateValueError(tt.err), tt.isDuplicate)
			}

			if IsNoSuchObjectError(tt.err) != tt.isNoObject {
				t.Errorf("IsNoSuchObjectError() = %v, want %v", IsNoSuchObjectError(tt.err), tt.isNoObject)
			}

			if IsNotFoundError(tt.err) != tt.isNotFound {
				t.Errorf("IsNotFoundError() = %v, want %v", IsNotFoundError(tt.err), tt.isNotFound)
			}

			if IsConflictError(tt.err) != tt.isConflict {
				t.Errorf("IsConflictError() = %v, want %v", IsConflictError(tt.err), tt.isConflict)
			}

			if IsAuthenticationError(tt.err) != tt.isAuth {
				t.Errorf("IsAuthenticationError() = %v, want %v", IsAuthenticationError(tt.err), tt.isAuth)
			}

			if IsPermissionError(tt.err) != tt.isPerm {
				t.Errorf("IsPermissionError() = %v, want %v", IsPermissionError(tt.err), tt.isPerm)
			}
		})
	}
}

func TestGetLDAPCodeMessage(t *testing.T) {
	tests := []struct {
		code uint16
		want string
	}{
		{ldap.LDAPResultAttributeOrValueExists, "Entry already holds the value"},
		{ldap.LDAPResultNoSuchObject, "Entry does not exist"},
		{ldap.LDAPResultNoSuchAttribute, "Entry does not hold the attribute or value"},
		{ldap.LDAPResultReferral, "Referral"},
		{9999, "Unknown LDAP error (code 9999)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := getLDAPCodeMessage(tt.code)
			if got != tt.want {
				t.Errorf("getLDAPCodeMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
