package provider

import (
	"encoding/json"
	"strings"
)

// Providers are inconsistent about where they put task identifiers, result
// lists, and failure messages, so every lookup walks an ordered list of
// candidate paths and the first non-empty hit wins. Paths are dot-separated;
// a string value met mid-path is transparently decoded as nested JSON, which
// covers payloads like {"resultJson":"{\"resultUrls\":[...]}"}.

// FirstString returns the first non-blank string found at any of the paths.
func FirstString(payload map[string]any, paths ...string) string {
	for _, path := range paths {
		if s, ok := lookup(payload, path).(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// FirstStringList returns the first non-empty list of strings found at any of
// the paths. A terminal string value that decodes as a JSON array of strings
// counts as a hit.
func FirstStringList(payload map[string]any, paths ...string) []string {
	for _, path := range paths {
		if list := toStringList(lookup(payload, path)); len(list) > 0 {
			return list
		}
	}
	return nil
}

func lookup(payload map[string]any, path string) any {
	var current any = payload
	for _, key := range strings.Split(path, ".") {
		if s, ok := current.(string); ok {
			var nested map[string]any
			if err := json.Unmarshal([]byte(s), &nested); err != nil {
				return nil
			}
			current = nested
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

func toStringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return nonBlank(val)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var decoded []string
		if err := json.Unmarshal([]byte(val), &decoded); err == nil {
			return nonBlank(decoded)
		}
	}
	return nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
