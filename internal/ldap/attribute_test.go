package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeValue_Accessors(t *testing.T) {
	single := NewSingleValued("mail", StringPtr("jane@example.com"))
	multi := NewMultiValued("memberOf", []string{"CN=staff"})

	v, err := single.Single()
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", *v)

	_, err = single.Multi()
	assert.ErrorIs(t, err, ErrInvalidOperation)

	vs, err := multi.Multi()
	require.NoError(t, err)
	assert.Equal(t, []string{"CN=staff"}, vs)

	_, err = multi.Single()
	assert.ErrorIs(t, err, ErrInvalidOperation)

	assert.Equal(t, SingleValued, single.Arity())
	assert.Equal(t, MultiValued, multi.Arity())
	assert.Equal(t, SingleValued, AttributeValue{Name: "empty"}.Arity())
}

func TestAttributeValue_TypeSwitch(t *testing.T) {
	attrs := []AttributeValue{
		NewSingleValued("mail", StringPtr("jane@example.com")),
		NewMultiValued("memberOf", []string{"CN=staff", "CN=vpn"}),
	}

	var singles, multis int
	for _, attr := range attrs {
		switch v := attr.Value.(type) {
		case Single:
			singles++
			assert.Equal(t, "jane@example.com", *v.Value)
		case Multi:
			multis++
			assert.Len(t, v.Values, 2)
		}
	}
	assert.Equal(t, 1, singles)
	assert.Equal(t, 1, multis)
}

func TestAttributeValue_HasSameValue(t *testing.T) {
	tests := []struct {
		name string
		a    AttributeValue
		b    AttributeValue
		want bool
	}{
		{"single both null", NewSingleValued("x", nil), NewSingleValued("x", nil), true},
		{"single null and value", NewSingleValued("x", nil), NewSingleValued("x", StringPtr("a")), false},
		{"single equal", NewSingleValued("x", StringPtr("a")), NewSingleValued("x", StringPtr("a")), true},
		{"single different", NewSingleValued("x", StringPtr("a")), NewSingleValued("x", StringPtr("b")), false},
		{"single case sensitive", NewSingleValued("x", StringPtr("a")), NewSingleValued("x", StringPtr("A")), false},
		{"multi both null", NewMultiValued("x", nil), NewMultiValued("x", nil), true},
		{"multi null and empty", NewMultiValued("x", nil), NewMultiValued("x", []string{}), false},
		{"multi both empty", NewMultiValued("x", []string{}), NewMultiValued("x", []string{}), true},
		{"multi order ignored", NewMultiValued("x", []string{"a", "b"}), NewMultiValued("x", []string{"b", "a"}), true},
		{"multi length differs", NewMultiValued("x", []string{"a", "a"}), NewMultiValued("x", []string{"a"}), false},
		{"multi containment quirk", NewMultiValued("x", []string{"a", "a", "b"}), NewMultiValued("x", []string{"a", "b", "b"}), true},
		{"multi different values", NewMultiValued("x", []string{"a", "b"}), NewMultiValued("x", []string{"a", "c"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.HasSameValue(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttributeValue_HasSameValueAcrossArity(t *testing.T) {
	_, err := NewSingleValued("x", nil).HasSameValue(NewMultiValued("x", nil))
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = NewMultiValued("x", []string{"a"}).HasSameValue(NewSingleValued("x", StringPtr("a")))
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestAttributeValue_String(t *testing.T) {
	assert.Equal(t, "mail(single)=jane@example.com", NewSingleValued("mail", StringPtr("jane@example.com")).String())
	assert.Equal(t, "mail(single)=<nil>", NewSingleValued("mail", nil).String())
	assert.Equal(t, "memberOf(multi)=[a, b]", NewMultiValued("memberOf", []string{"a", "b"}).String())
	assert.Equal(t, "memberOf(multi)=<nil>", NewMultiValued("memberOf", nil).String())
}

func TestParseEditOp(t *testing.T) {
	tests := []struct {
		input   string
		want    EditOp
		wantErr bool
	}{
		{"", OpReplace, false},
		{"replace", OpReplace, false},
		{"SET", OpReplace, false},
		{"append", OpAppend, false},
		{" Add ", OpAppend, false},
		{"clear", OpClear, false},
		{"remove", OpClear, false},
		{"increment", OpReplace, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEditOp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClearKeepsArity(t *testing.T) {
	edit := Clear("member", MultiValued)
	assert.Equal(t, OpClear, edit.Op)
	assert.Equal(t, MultiValued, edit.Arity())

	values, err := edit.Multi()
	require.NoError(t, err)
	assert.Nil(t, values)

	assert.Equal(t, "clear member(multi)=<nil>", edit.String())
}
