package llm

import "strings"

// cleanMarkdownWrapper strips markdown code fences that models sometimes
// wrap around JSON output despite instructions not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}

// ExtractJSONObject returns the first top-level JSON object in the
// content, tolerating prose before or after it. Returns the cleaned
// content unchanged when no object delimiters are found.
func ExtractJSONObject(content string) string {
	content = cleanMarkdownWrapper(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end != -1 && end > start {
		return content[start : end+1]
	}
	return content
}
