// Package formatting provides parsing helpers for model-generated content.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly or after extraction from surrounding prose.
var ErrParseFailed = errors.New("failed to parse response")

// Pre-compiled patterns for extracting JSON from model replies.
var (
	// jsonBlockRegex matches JSON inside markdown code fences: ```json { ... } ```
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// jsonObjectRegex matches any embedded JSON object (greedy fallback).
	jsonObjectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// trailingCommaRegex matches trailing commas before ] or }.
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)
)

// Parse attempts to unmarshal content as JSON into T.
// If direct parsing fails, it extracts a JSON object from a markdown code
// fence or from surrounding prose, cleans common model artifacts (line
// comments, trailing commas), and retries. Returns ErrParseFailed if every
// attempt fails.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	raw := ExtractJSON(content)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}

// ExtractJSON extracts a JSON object from a model reply, preferring fenced
// code blocks over bare embedded objects. The result has line comments and
// trailing commas removed. Returns "" if no object is found.
func ExtractJSON(content string) string {
	var raw string
	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) > 1 {
		raw = matches[1]
	} else if match := jsonObjectRegex.FindString(content); match != "" {
		raw = match
	}
	if raw == "" {
		return ""
	}
	return cleanJSON(raw)
}

// cleanJSON removes JavaScript-style comments and trailing commas, both of
// which models commonly emit inside otherwise valid JSON.
func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, stripLineComment(line))
	}
	result := strings.Join(cleaned, "\n")
	return trailingCommaRegex.ReplaceAllString(result, "$1")
}

// stripLineComment removes a // comment from a JSON line, respecting string
// values so URLs like "https://example.com" survive.
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}

	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
