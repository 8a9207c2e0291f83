package classifier

import (
	"encoding/json"
	"strings"
)

// stripFences removes markdown code fence lines such as ```json.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// arrayBounds returns the text from the first '[' to the last ']'. Without
// a '[' there is no array and "" is returned. An opening bracket with no
// closing one yields the rest of the text so a truncated array can still be
// decoded up to its last complete element.
func arrayBounds(s string) string {
	s = stripFences(s)

	start := strings.IndexByte(s, '[')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, ']')
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

// objectBounds returns the text from the first '{' to the last '}'.
func objectBounds(s string) (string, bool) {
	s = stripFences(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeElements splits a JSON array into its raw elements. Decoding stops
// at the first syntax error and the elements read so far are returned.
func decodeElements(raw string) []json.RawMessage {
	elements := []json.RawMessage{}
	if raw == "" {
		return elements
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return elements
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return elements
	}

	for dec.More() {
		var el json.RawMessage
		if err := dec.Decode(&el); err != nil {
			break
		}
		elements = append(elements, el)
	}
	return elements
}
