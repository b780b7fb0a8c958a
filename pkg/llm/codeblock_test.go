package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		lang   string
		code   string
		wantOK bool
	}{
		{
			name:   "python block",
			reply:  "Here you go:\n```python\nfig, ax = plt.subplots()\n```\nEnjoy.",
			lang:   "python",
			code:   "fig, ax = plt.subplots()",
			wantOK: true,
		},
		{
			name:   "prefers tagged block",
			reply:  "```\npip install seaborn\n```\n```Python\nsns.histplot(df)\n```",
			lang:   "python",
			code:   "sns.histplot(df)",
			wantOK: true,
		},
		{
			name:   "falls back to first fence",
			reply:  "```py\ndf.plot()\n```",
			lang:   "python",
			code:   "df.plot()",
			wantOK: true,
		},
		{
			name:   "untagged fence",
			reply:  "```\ndf.plot()\n```",
			lang:   "python",
			code:   "df.plot()",
			wantOK: true,
		},
		{
			name:  "no fence",
			reply: "I would use a bar chart here.",
			lang:  "python",
		},
		{
			name:  "unterminated fence",
			reply: "```python\ndf.plot()",
			lang:  "python",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := ExtractCodeBlock(tt.reply, tt.lang)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}
