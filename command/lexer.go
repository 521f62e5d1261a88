// Package command implements the chat-text command engine: a lexer,
// path-prefix resolver, and parameter binder (§4.7-§4.9).
package command

import (
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/ncatbot/core/errors"
)

// Kind identifies a lexical token type (§4.7).
type Kind int

const (
	Word Kind = iota
	Quoted
	ShortOption
	LongOption
	Assign
	EOF
)

// Token is one lexical unit produced by Tokenize.
type Token struct {
	Kind Kind

	// Text holds the literal value for Word/Quoted tokens.
	Text string

	// Name holds the flag/parameter name for ShortOption/LongOption tokens.
	Name string

	// Value holds the value half of a "name=value" option token.
	Value string
	// HasValue is true when the option carried "=" followed by a non-empty
	// value. An empty value half ("--port=") leaves HasValue false, so the
	// token degrades to a boolean flag rather than erroring (§4.7).
	HasValue bool
}

// Tokenize splits chat text into the token stream described in §4.7:
// unquoted barewords, quoted strings (honoring \" and \\), short options
// (a letter sequence, boolean unless followed by "="), long options
// ("--name" optionally followed by "=value"), and a trailing EOF marker.
func Tokenize(text string) ([]Token, error) {
	var tokens []Token
	i, n := 0, len(text)

	for i < n {
		for i < n && isSpace(text[i]) {
			i++
		}
		if i >= n {
			break
		}

		if text[i] == '"' {
			raw, next, err := scanQuoted(text, i)
			if err != nil {
				return nil, err
			}
			decoded, err := decodeQuoted(raw)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Kind: Quoted, Text: decoded})
			i = next
			continue
		}

		start := i
		for i < n && !isSpace(text[i]) {
			i++
		}
		raw := text[start:i]
		tokens = append(tokens, classifyWord(raw)...)
	}

	tokens = append(tokens, Token{Kind: EOF})
	return tokens, nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// scanQuoted returns the raw substring (including surrounding quotes) of the
// quoted run starting at text[start] == '"', and the index just past it.
func scanQuoted(text string, start int) (string, int, error) {
	i := start + 1
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return text[start : i+1], i + 1, nil
		default:
			i++
		}
	}
	return "", 0, errors.Newf("unterminated quoted string starting at offset %d", start)
}

// decodeQuoted strips the surrounding quotes and resolves \" and \\ escapes,
// reusing go-shellquote's Split for exactly the escaping rules §4.7
// specifies (it is fed only this single isolated quoted span, so it always
// yields exactly one word).
func decodeQuoted(raw string) (string, error) {
	words, err := shellquote.Split(raw)
	if err != nil {
		return "", errors.Wrapf(err, "decoding quoted token %q", raw)
	}
	if len(words) == 0 {
		return "", nil
	}
	return words[0], nil
}

// classifyWord turns one whitespace-delimited raw token into one or more
// Tokens: a "-abc" short-option run with no "=" expands into three boolean
// flags; "-p=8080"/"--port=8080" become one named-parameter token; a bare
// "=" becomes Assign; everything else is a Word.
func classifyWord(raw string) []Token {
	switch {
	case raw == "=":
		return []Token{{Kind: Assign}}

	case strings.HasPrefix(raw, "--"):
		return []Token{longOption(raw[2:])}

	case strings.HasPrefix(raw, "-") && len(raw) > 1:
		return shortOptions(raw[1:])

	default:
		return []Token{{Kind: Word, Text: raw}}
	}
}

func longOption(body string) Token {
	if idx := strings.IndexByte(body, '='); idx >= 0 {
		name, value := body[:idx], body[idx+1:]
		if value == "" {
			// "--port=" with no value degrades to a boolean flag (§4.7,
			// documented behavior, not an error).
			return Token{Kind: LongOption, Name: name}
		}
		return Token{Kind: LongOption, Name: name, Value: value, HasValue: true}
	}
	return Token{Kind: LongOption, Name: body}
}

// shortOptions handles the body after a single leading "-". A "p=8080" body
// is one named-parameter token; anything else expands letter-by-letter into
// independent boolean flags.
func shortOptions(body string) []Token {
	if idx := strings.IndexByte(body, '='); idx >= 0 {
		name, value := body[:idx], body[idx+1:]
		if value == "" {
			return []Token{{Kind: ShortOption, Name: name}}
		}
		return []Token{{Kind: ShortOption, Name: name, Value: value, HasValue: true}}
	}
	out := make([]Token, 0, len(body))
	for _, r := range body {
		out = append(out, Token{Kind: ShortOption, Name: string(r)})
	}
	return out
}
