package pluginkit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Field prints an indented label and value, skipping empty values
func Field(out io.Writer, label string, value interface{}) {
	s := fmt.Sprint(value)
	if s == "" || s == "<nil>" {
		return
	}
	fmt.Fprintf(out, "   %s: %s\n", label, s)
}

// Truncate shortens s to at most n runes, marking the cut with "..."
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// PrettyJSON writes v as indented JSON
func PrettyJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// Date trims an ISO timestamp to its date part
func Date(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
