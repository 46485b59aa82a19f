package protocolinit

import (
	"bytes"
	"fmt"
)

// Version is the on-chain version tag: a string right-padded into 32 bytes.
type Version [32]byte

// ParseVersion packs s into a Version. Tags longer than 32 bytes are rejected.
func ParseVersion(s string) (Version, error) {
	var v Version
	if len(s) > len(v) {
		return v, fmt.Errorf("version tag %q exceeds 32 bytes", s)
	}
	copy(v[:], s)
	return v, nil
}

// MustVersion is ParseVersion for constants.
func MustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether no version is set.
func (v Version) IsZero() bool {
	return v == Version{}
}

// String returns the tag without padding.
func (v Version) String() string {
	return string(bytes.TrimRight(v[:], "\x00"))
}

// Bytes32 returns the raw tag for ABI packing.
func (v Version) Bytes32() [32]byte {
	return v
}
