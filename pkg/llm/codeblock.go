package llm

import (
	"regexp"
	"strings"
)

// codeBlockPattern matches closed fences only. An unterminated fence is not
// a usable block.
var codeBlockPattern = regexp.MustCompile("(?s)```[ \\t]*([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n(.*?)```")

// ExtractCodeBlock returns the body of the first fenced block tagged lang
// (case-insensitive), or of the first fenced block of any kind when no
// block carries that tag. ok is false when the reply has no closed fence.
func ExtractCodeBlock(reply, lang string) (code string, ok bool) {
	matches := codeBlockPattern.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return "", false
	}

	for _, m := range matches {
		if lang != "" && strings.EqualFold(m[1], lang) {
			return strings.TrimSpace(m[2]), true
		}
	}
	return strings.TrimSpace(matches[0][2]), true
}
