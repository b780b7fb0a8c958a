package sql

import (
	"strings"
	"unicode"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenWord       TokenKind = iota // bare identifier or keyword
	TokenQuotedName                  // "name", [name] or `name`
	TokenString                      // 'literal', E'...', $$...$$
	TokenNumber
	TokenSymbol // single punctuation character
)

// Token is one lexical unit of a SQL string. Comments and whitespace are dropped.
type Token struct {
	Kind TokenKind
	// Text is the token as written.
	Text string
	// Name is the identifier value: unquoted, with doubled quotes collapsed.
	// Empty for strings, numbers and symbols.
	Name string
	// Pos is the byte offset of the token in the input.
	Pos int
}

// IsIdentifier reports whether the token names something.
func (t Token) IsIdentifier() bool {
	return t.Kind == TokenWord || t.Kind == TokenQuotedName
}

// IsKeyword reports whether the token is the bare word kw (case-insensitive).
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == TokenWord && strings.EqualFold(t.Text, kw)
}

// IsSymbol reports whether the token is the punctuation character s.
func (t Token) IsSymbol(s byte) bool {
	return t.Kind == TokenSymbol && len(t.Text) == 1 && t.Text[0] == s
}

// Tokenize splits a SQL string into tokens. It understands single-quoted
// strings with '' escapes, PostgreSQL dollar quoting, double-quoted,
// bracketed and backtick identifiers, and -- and /* */ comments.
// Unterminated literals run to the end of the input.
func Tokenize(query string) []Token {
	var tokens []Token
	i := 0
	n := len(query)

	for i < n {
		c := query[i]

		switch {
		case isSpace(c):
			i++

		case c == '-' && i+1 < n && query[i+1] == '-':
			for i < n && query[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += end + 4
			}

		case c == '\'':
			start := i
			i = scanQuoted(query, i, '\'')
			tokens = append(tokens, Token{Kind: TokenString, Text: query[start:i], Pos: start})

		case c == '$' && dollarTagEnd(query, i) > 0:
			start := i
			tagEnd := dollarTagEnd(query, i)
			tag := query[i:tagEnd]
			closeIdx := strings.Index(query[tagEnd:], tag)
			if closeIdx < 0 {
				i = n
			} else {
				i = tagEnd + closeIdx + len(tag)
			}
			tokens = append(tokens, Token{Kind: TokenString, Text: query[start:i], Pos: start})

		case c == '"' || c == '`':
			start := i
			i = scanQuoted(query, i, c)
			text := query[start:i]
			tokens = append(tokens, Token{Kind: TokenQuotedName, Text: text, Name: unquote(text, c, c), Pos: start})

		case c == '[':
			start := i
			i = scanQuoted(query, i, ']')
			text := query[start:i]
			tokens = append(tokens, Token{Kind: TokenQuotedName, Text: text, Name: unquote(text, '[', ']'), Pos: start})

		case isWordStart(c):
			start := i
			for i < n && isWordPart(query[i]) {
				i++
			}
			// E'...' and N'...' string prefixes
			if i-start == 1 && i < n && query[i] == '\'' && strings.ContainsRune("EeNnBbXx", rune(c)) {
				i = scanQuoted(query, i, '\'')
				tokens = append(tokens, Token{Kind: TokenString, Text: query[start:i], Pos: start})
				continue
			}
			word := query[start:i]
			tokens = append(tokens, Token{Kind: TokenWord, Text: word, Name: word, Pos: start})

		case c >= '0' && c <= '9':
			start := i
			for i < n && (isWordPart(query[i]) || query[i] == '.') {
				i++
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: query[start:i], Pos: start})

		default:
			tokens = append(tokens, Token{Kind: TokenSymbol, Text: query[i : i+1], Pos: i})
			i++
		}
	}

	return tokens
}

// scanQuoted returns the offset just past the literal opening at query[start].
// A doubled closing character is an escape.
func scanQuoted(query string, start int, closing byte) int {
	i := start + 1
	for i < len(query) {
		if query[i] == closing {
			if i+1 < len(query) && query[i+1] == closing {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(query)
}

// dollarTagEnd returns the offset after a $tag$ opener at query[i], or 0.
func dollarTagEnd(query string, i int) int {
	j := i + 1
	if j < len(query) && query[j] >= '0' && query[j] <= '9' {
		return 0 // $1 placeholder
	}
	for j < len(query) && query[j] != '$' && isWordPart(query[j]) {
		j++
	}
	if j < len(query) && query[j] == '$' {
		return j + 1
	}
	return 0
}

func unquote(text string, open, closing byte) string {
	if len(text) >= 2 && text[0] == open && text[len(text)-1] == closing {
		text = text[1 : len(text)-1]
	}
	return strings.ReplaceAll(text, string([]byte{closing, closing}), string(closing))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isWordStart(c byte) bool {
	return c == '_' || c >= 0x80 || unicode.IsLetter(rune(c))
}

func isWordPart(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9') || c == '$'
}
