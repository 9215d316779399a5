package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractStringArray recovers a JSON array of strings from free-form model
// output, in order of preference:
//  1. the trimmed response is bracket-delimited and parses directly;
//  2. the first [...] substring in the response parses.
//
// Up to max entries are returned; extras are truncated. An error means no
// parseable array was found, not a malformed request.
func ExtractStringArray(content string, max int) ([]string, error) {
	content = strings.TrimSpace(cleanMarkdownWrapper(content))

	if strings.HasPrefix(content, "[") && strings.HasSuffix(content, "]") {
		if items, err := parseStringArray(content); err == nil {
			return truncate(items, max), nil
		}
	}

	// Models often wrap the array in prose; take the first bracketed span.
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		if items, err := parseStringArray(content[start : end+1]); err == nil {
			return truncate(items, max), nil
		}
	}

	return nil, fmt.Errorf("no parseable string array in response")
}

func parseStringArray(s string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty array")
	}
	return items, nil
}

func truncate(items []string, max int) []string {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}

// cleanMarkdownWrapper strips the ```json fences models sometimes add
// despite instructions not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
