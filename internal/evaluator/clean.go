package evaluator

import "strings"

// CleanJSON extracts the JSON payload from a model reply. Replies may wrap
// the object in a markdown fence or surround it with prose.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if startsJSON(clean) {
		return clean
	}

	if start := strings.Index(clean, "```"); start >= 0 {
		body := clean[start+3:]
		if strings.HasPrefix(strings.ToLower(body), "json") {
			body = body[len("json"):]
		}
		if end := strings.LastIndex(body, "```"); end >= 0 {
			body = body[:end]
		}
		clean = strings.TrimSpace(body)
		if startsJSON(clean) {
			return clean
		}
	}

	start, end := strings.Index(clean, "{"), strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		return clean[start : end+1]
	}
	return clean
}

func startsJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}
