package xsd

import (
	"encoding/base64"
	"encoding/hex"
)

// HexBinary wraps xsd:hexBinary. The canonical form uses upper-case digits;
// the length must be even.
type HexBinary string

// NewHexBinary validates the character set and the length parity.
func NewHexBinary(lexical string) (HexBinary, error) {
	if len(lexical)%2 != 0 {
		return "", valueErr("xsd:hexBinary %q has odd length", lexical)
	}
	if _, err := hex.DecodeString(lexical); err != nil {
		return "", valueErr("invalid xsd:hexBinary %q", lexical)
	}
	return HexBinary(lexical), nil
}

// HexBinaryFromRDF builds the value without validation.
func HexBinaryFromRDF(lexical string) HexBinary { return HexBinary(lexical) }

func (h HexBinary) String() string { return string(h) }

// ToRDF returns the typed literal form.
func (h HexBinary) ToRDF() string { return `"` + string(h) + `"^^xsd:hexBinary` }

// Bytes decodes the hex payload.
func (h HexBinary) Bytes() ([]byte, error) {
	b, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, valueErr("invalid xsd:hexBinary %q", string(h))
	}
	return b, nil
}

// Base64Binary wraps xsd:base64Binary.
type Base64Binary string

// NewBase64Binary validates the character set and padding.
func NewBase64Binary(lexical string) (Base64Binary, error) {
	if _, err := base64.StdEncoding.DecodeString(lexical); err != nil {
		return "", valueErr("invalid xsd:base64Binary %q", lexical)
	}
	return Base64Binary(lexical), nil
}

// Base64BinaryFromRDF builds the value without validation.
func Base64BinaryFromRDF(lexical string) Base64Binary { return Base64Binary(lexical) }

func (b Base64Binary) String() string { return string(b) }

// ToRDF returns the typed literal form.
func (b Base64Binary) ToRDF() string { return `"` + string(b) + `"^^xsd:base64Binary` }

// Bytes decodes the base64 payload.
func (b Base64Binary) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return nil, valueErr("invalid xsd:base64Binary %q", string(b))
	}
	return data, nil
}
