package chatter

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Hashtags is the ordered list of tags on a post. It's stored as a JSON array
// in a text column so that substring search works the same on every dialect.
type Hashtags []string

func (h Hashtags) Value() (driver.Value, error) {
	if h == nil {
		h = Hashtags{}
	}

	// Tags are searched as text, so they're stored without html escaping
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]string(h)); err != nil {
		return nil, fmt.Errorf("error encoding hashtags: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Contains reports if any tag contains term, ignoring case.
func (h Hashtags) Contains(term string) bool {
	term = strings.ToLower(term)
	for _, tag := range h {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}

	return false
}

func (h *Hashtags) Scan(src any) error {
	var byts []byte
	switch src := src.(type) {
	case nil:
		*h = Hashtags{}
		return nil
	case string:
		byts = []byte(src)
	case []byte:
		byts = src
	default:
		return fmt.Errorf("unsupported hashtags column type %T", src)
	}

	var tags []string
	if err := json.Unmarshal(byts, &tags); err != nil {
		return fmt.Errorf("error decoding hashtags: %w", err)
	}
	*h = tags

	return nil
}

// ParseHashtags splits a comma separated list, dropping blanks.
func ParseHashtags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}

	return tags
}
