package config

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// credentialsFormat is the viper config type the codec is registered under.
// Viper only accepts config types from its SupportedExts list, so the codec
// replaces the built-in properties decoder.
const credentialsFormat = "properties"

// credentialsCodec reads the key:value credentials format. Each line is
// split on its first ':' and the value is kept as written apart from
// surrounding whitespace: no escapes, no variable expansion. Blank lines and
// lines starting with '#' are ignored. Dotted keys become nested maps.
type credentialsCodec struct{}

func (credentialsCodec) Decode(b []byte, v map[string]any) error {
	scanner := bufio.NewScanner(bytes.NewReader(b))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("line %d: expected key:value", lineNo)
		}
		setPath(v, strings.Split(key, "."), strings.TrimSpace(value))
	}
	return scanner.Err()
}

func (credentialsCodec) Encode(v map[string]any) ([]byte, error) {
	flat := make(map[string]string)
	flatten("", v, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s:%s\n", k, flat[k])
	}
	return buf.Bytes(), nil
}

func setPath(m map[string]any, path []string, value string) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = fmt.Sprint(val)
	}
}
