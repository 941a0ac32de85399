// Package mapping parses the java version to ALPN version table.
//
// The format is a flat properties-like text: one entry per line, the first
// '=' or ':' separates key from value, both trimmed. Lines starting with '#'
// or '!' are comments. Anything else without a separator is ignored.
package mapping

import (
	"bytes"
	"strings"
)

type Table struct {
	keys   []string
	values map[string]string
}

// Parse never fails: lines it cannot read as an entry are skipped, whatever
// their length.
func Parse(data []byte) *Table {
	t := &Table{values: make(map[string]string)}
	for len(data) > 0 {
		var line []byte
		line, data, _ = bytes.Cut(data, []byte("\n"))
		key, value, ok := parseLine(string(line))
		if !ok {
			continue
		}
		if _, seen := t.values[key]; !seen {
			t.keys = append(t.keys, key)
		}
		t.values[key] = value
	}
	return t
}

func parseLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' || line[0] == '!' {
		return "", "", false
	}
	idx := strings.IndexAny(line, "=:")
	if idx < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

// Lookup returns the value of the last entry for key.
func (t *Table) Lookup(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Keys lists keys in order of first appearance.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *Table) Len() int {
	return len(t.keys)
}
