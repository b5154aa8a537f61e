package catalog

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Tags is an ordered list of topic or concept tags. It decodes from either
// a JSON list or a legacy string encoding.
type Tags []string

// UnmarshalJSON accepts every encoding ParseTopics understands
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTopics(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTopics turns a stored topic value into an ordered list of tags.
//
// Older records keep topics as a comma-joined string or a serialized JSON
// array; newer ones use a native list. Blank tags are dropped and repeats
// are removed case-insensitively, keeping the first spelling. A value that
// looks like a JSON array but does not decode as one is rejected.
func ParseTopics(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return cleanTopics(v), nil
	case Tags:
		return cleanTopics(v), nil
	case []interface{}:
		topics := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("topic %d is %T, not a string", i, item)
			}
			topics = append(topics, s)
		}
		return cleanTopics(topics), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			var topics []string
			if err := json.Unmarshal([]byte(trimmed), &topics); err != nil {
				return nil, fmt.Errorf("invalid topic array: %w", err)
			}
			return cleanTopics(topics), nil
		}
		return cleanTopics(strings.Split(trimmed, ",")), nil
	default:
		return nil, fmt.Errorf("unsupported topic value %T", raw)
	}
}

func cleanTopics(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
