package ldap

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/go-objectsid"
	"github.com/google/uuid"
)

// AttributeDecoder renders one raw attribute value as a string.
type AttributeDecoder func(raw []byte) (string, error)

// GUIDBytesLength is the length of a binary objectGUID.
const GUIDBytesLength = 16

// DefaultDecoders renders the Active Directory binary identifiers in their
// canonical text form. Other attributes are read as strings.
var DefaultDecoders = map[string]AttributeDecoder{
	"objectGUID": DecodeObjectGUID,
	"objectSid":  DecodeObjectSID,
}

// DecodeObjectGUID converts a binary objectGUID to its hyphenated string.
// Active Directory stores the first three GUID fields little-endian and the
// last eight bytes in network order.
func DecodeObjectGUID(raw []byte) (string, error) {
	if len(raw) != GUIDBytesLength {
		return "", fmt.Errorf("invalid GUID byte length: expected %d, got %d", GUIDBytesLength, len(raw))
	}

	b := make([]byte, GUIDBytesLength)
	b[0], b[1], b[2], b[3] = raw[3], raw[2], raw[1], raw[0]
	b[4], b[5] = raw[5], raw[4]
	b[6], b[7] = raw[7], raw[6]
	copy(b[8:], raw[8:])

	id, err := uuid.FromBytes(b)
	if err != nil {
		return "", fmt.Errorf("failed to decode GUID: %w", err)
	}
	return id.String(), nil
}

// EncodeObjectGUID converts a GUID string to the Active Directory byte layout.
func EncodeObjectGUID(guid string) ([]byte, error) {
	id, err := uuid.Parse(guid)
	if err != nil {
		return nil, fmt.Errorf("invalid GUID format: %w", err)
	}

	raw := make([]byte, GUIDBytesLength)
	raw[0], raw[1], raw[2], raw[3] = id[3], id[2], id[1], id[0]
	raw[4], raw[5] = id[5], id[4]
	raw[6], raw[7] = id[7], id[6]
	copy(raw[8:], id[8:])
	return raw, nil
}

// DecodeObjectSID converts a binary objectSid to its S-1-5-... form.
func DecodeObjectSID(raw []byte) (string, error) {
	// revision, sub-authority count and 6-byte identifier authority
	if len(raw) < 8 {
		return "", fmt.Errorf("binary SID too short: %d bytes", len(raw))
	}
	if want := 8 + 4*int(raw[1]); len(raw) < want {
		return "", fmt.Errorf("binary SID truncated: expected %d bytes, got %d", want, len(raw))
	}

	sid := objectsid.Decode(raw)
	return sid.String(), nil
}

// decoderFor returns the decoder registered for name, ignoring case.
func decoderFor(decoders map[string]AttributeDecoder, name string) AttributeDecoder {
	if d, ok := decoders[name]; ok {
		return d
	}
	for key, d := range decoders {
		if strings.EqualFold(key, name) {
			return d
		}
	}
	return nil
}

// decodeValues renders raw values with decoder, or as plain strings when decoder is nil.
func decodeValues(name string, raw [][]byte, decoder AttributeDecoder) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if decoder == nil {
			out = append(out, string(v))
			continue
		}
		s, err := decoder(v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attribute %q: %w", name, err)
		}
		out = append(out, s)
	}
	return out, nil
}
