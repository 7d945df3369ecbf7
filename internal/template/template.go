// Package template resolves placeholder tokens in raw input text before any
// structural parsing happens, so a template only has to become a valid
// document once substitution completes. Placeholders use the form {key},
// with an optional in-template default {key=value}; literal braces escape
// as {{ and }}. A text that declares no placeholder is not a template and
// passes through byte for byte, so brace syntax that belongs to the
// document format (compact JSON objects, inline tables) stays intact.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Error is the fatal substitution failure: one or more placeholders had
// neither an override nor a default. It names every unresolved key.
type Error struct {
	Keys []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("unresolved template placeholder(s): %s", strings.Join(e.Keys, ", "))
}

// Defaults may not contain quote characters: a quoted value after the
// equals sign is document syntax (a TOML or HCL inline table), never a
// placeholder default.
var placeholderRe = regexp.MustCompile(`\{\{|\}\}|\{([A-Za-z_][A-Za-z0-9_.-]*)(?:=([^{}"']*))?\}`)

// Expand substitutes every placeholder in text. Overrides win over
// in-template defaults. The second return value lists override keys that
// matched no placeholder; callers may surface them as a diagnostic, but
// they are not an error, since documents often share one override set.
//
// A text without placeholders is returned unchanged: escape collapsing and
// default capture apply only to templates, so a plain document is never
// rewritten.
func Expand(text string, overrides map[string]string) (string, []string, error) {
	matches := placeholderRe.FindAllStringSubmatchIndex(text, -1)
	if !declaresPlaceholder(matches) {
		return text, sortedKeys(overrides), nil
	}

	var out strings.Builder
	var unresolved []string
	used := make(map[string]bool)
	last := 0

	for _, loc := range matches {
		out.WriteString(text[last:loc[0]])
		last = loc[1]

		match := text[loc[0]:loc[1]]
		switch match {
		case "{{":
			out.WriteString("{")
			continue
		case "}}":
			out.WriteString("}")
			continue
		}

		key := text[loc[2]:loc[3]]
		used[key] = true
		if v, ok := overrides[key]; ok {
			out.WriteString(v)
			continue
		}
		if loc[4] >= 0 { // in-template default present
			out.WriteString(text[loc[4]:loc[5]])
			continue
		}
		unresolved = append(unresolved, key)
	}
	out.WriteString(text[last:])

	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return "", nil, &Error{Keys: dedup(unresolved)}
	}

	var unused []string
	for k := range overrides {
		if !used[k] {
			unused = append(unused, k)
		}
	}
	sort.Strings(unused)
	return out.String(), unused, nil
}

// Placeholders returns the distinct placeholder keys in text, in order of
// first appearance.
func Placeholders(text string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if m[0] == "{{" || m[0] == "}}" || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		keys = append(keys, m[1])
	}
	return keys
}

// declaresPlaceholder reports whether any match carries a key, as opposed
// to being only a brace escape.
func declaresPlaceholder(matches [][]int) bool {
	for _, loc := range matches {
		if loc[2] >= 0 {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for i, k := range sorted {
		if i == 0 || sorted[i-1] != k {
			out = append(out, k)
		}
	}
	return out
}
