package store

import "strings"

// ParseInfo parses the "key:value" lines of an INFO reply. Section headers are skipped.
func ParseInfo(raw string) map[string]string {
	info := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 || strings.HasPrefix(line, `#`) {
			continue
		}
		key, val, ok := strings.Cut(line, `:`)
		if !ok {
			continue
		}
		info[key] = val
	}
	return info
}
