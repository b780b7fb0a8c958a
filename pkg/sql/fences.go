package sql

import (
	"regexp"
	"strings"
)

// fencePattern matches a fenced block; the closing fence is optional so a
// truncated reply still yields its SQL.
var fencePattern = regexp.MustCompile("(?s)```[ \\t]*(?:([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n)?(.*?)(?:```|$)")

// StripMarkdownSQL returns the SQL inside the first fenced block of a model
// reply, or the trimmed reply when it has no fence. A reply wrapped in
// single backticks is unwrapped too.
func StripMarkdownSQL(reply string) string {
	reply = strings.TrimSpace(reply)

	if strings.Contains(reply, "```") {
		if m := fencePattern.FindStringSubmatch(reply); m != nil {
			return strings.TrimSpace(m[2])
		}
	}

	if len(reply) >= 2 && strings.HasPrefix(reply, "`") && strings.HasSuffix(reply, "`") {
		return strings.TrimSpace(strings.Trim(reply, "`"))
	}

	return reply
}
