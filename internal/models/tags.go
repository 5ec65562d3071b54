package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringSet is a list of tags stored as a JSON text column. Membership is
// case-insensitive; insertion order is preserved.
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		s = StringSet{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported tags column type %T", value)
	}

	if len(raw) == 0 {
		*s = StringSet{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

func (s StringSet) Contains(tag string) bool {
	for _, existing := range s {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// ParseTagList splits a comma-separated tag string into a trimmed set,
// dropping empties and case-insensitive duplicates.
func ParseTagList(raw string) StringSet {
	parts := strings.Split(raw, ",")
	tags := make(StringSet, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" || tags.Contains(tag) {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
