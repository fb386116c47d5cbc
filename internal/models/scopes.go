package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ScopeList is a set of scope strings. It is serialized as a JSON array at
// the storage edge and as a space-delimited string on the wire (RFC 6749).
type ScopeList []string

// ParseScopes splits a space-delimited scope string into a ScopeList.
// An empty input yields an empty list.
func ParseScopes(raw string) ScopeList {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ScopeList{}
	}
	return ScopeList(fields)
}

// Contains reports whether scope is a member of the list.
func (s ScopeList) Contains(scope string) bool {
	for _, candidate := range s {
		if candidate == scope {
			return true
		}
	}
	return false
}

// String returns the RFC 6749 wire form: scopes joined by single spaces.
func (s ScopeList) String() string {
	return strings.Join(s, " ")
}

// Value implements driver.Valuer, storing the list as a JSON array.
func (s ScopeList) Value() (driver.Value, error) {
	if s == nil {
		s = ScopeList{}
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for text and blob columns.
func (s *ScopeList) Scan(value interface{}) error {
	if value == nil {
		*s = ScopeList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ScopeList", value)
	}

	var scopes []string
	if err := json.Unmarshal(data, &scopes); err != nil {
		return fmt.Errorf("invalid scope list column: %w", err)
	}
	*s = ScopeList(scopes)
	return nil
}
