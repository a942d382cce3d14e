// Package models defines the domain entities for Ensemble.
package models

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Version is the opaque optimistic-concurrency token carried by every
// versioned entity. Storage assigns a new value on each successful
// write; the only permitted operation is equality comparison. It
// travels over the wire hex-encoded.
type Version []byte

// Equal compares two tokens byte-wise.
func (v Version) Equal(other Version) bool {
	return bytes.Equal(v, other)
}

// MarshalJSON encodes the token as a hex string.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(v))
}

// UnmarshalJSON decodes a hex string token.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*v = nil
		return nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("models: invalid version token: %w", err)
	}
	*v = raw
	return nil
}

// String returns the hex form, for logging.
func (v Version) String() string {
	return hex.EncodeToString(v)
}
