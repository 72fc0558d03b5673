// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package wit

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenWord
	tokenPunct
	tokenArrow
)

// token is one lexical item. Doc-comment text collected since the
// previous token rides along on the next token so the parser can
// attach it to the item it introduces.
type token struct {
	kind tokenKind
	text string
	docs string
	line int
}

// lexer splits WIT source into tokens, stripping comments and
// whitespace while accumulating doc-comment text.
type lexer struct {
	src    string
	pos    int
	line   int
	docs   []string
	tokens []token
}

func lex(source string) ([]token, error) {
	l := &lexer{src: source, line: 1}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.kind == tokenEOF {
			return l.tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case strings.HasPrefix(l.src[l.pos:], "///"):
			l.docLine()
		case strings.HasPrefix(l.src[l.pos:], "/**"):
			if err := l.docBlock(); err != nil {
				return token{}, err
			}
		case strings.HasPrefix(l.src[l.pos:], "//"):
			l.skipLine()
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			if err := l.skipBlock(); err != nil {
				return token{}, err
			}
		default:
			return l.token()
		}
	}
	return l.emit(tokenEOF, ""), nil
}

func (l *lexer) token() (token, error) {
	c := l.src[l.pos]
	switch {
	case isWordStart(c):
		return l.word(), nil
	case c == '-' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
		l.pos += 2
		return l.emit(tokenArrow, "->"), nil
	case strings.ContainsRune("{}<>(),;:=@/._*", rune(c)):
		l.pos++
		return l.emit(tokenPunct, string(c)), nil
	default:
		return token{}, fmt.Errorf("line %d: unexpected character %q", l.line, c)
	}
}

func isWordStart(c byte) bool {
	return c == '%' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// word lexes identifiers, keywords, and version strings. Kebab
// hyphens continue a word only when followed by an alphanumeric so
// that "a ->" lexes as a word and an arrow. Digit-led words accept
// dots and plus signs, which covers semver versions after '@'.
func (l *lexer) word() token {
	start := l.pos
	digitLed := l.src[l.pos] >= '0' && l.src[l.pos] <= '9'
	if l.src[l.pos] == '%' {
		l.pos++
		start = l.pos
	}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_':
			l.pos++
		case digitLed && (c == '.' || c == '+'):
			l.pos++
		case c == '-' && l.pos+1 < len(l.src) && isAlnum(l.src[l.pos+1]):
			l.pos++
		default:
			return l.emit(tokenWord, l.src[start:l.pos])
		}
	}
	return l.emit(tokenWord, l.src[start:l.pos])
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (l *lexer) emit(kind tokenKind, text string) token {
	tok := token{kind: kind, text: text, line: l.line}
	if len(l.docs) > 0 {
		tok.docs = strings.Join(l.docs, "\n")
		l.docs = nil
	}
	return tok
}

// docLine consumes a /// comment, recording its text with the marker
// and one leading space stripped.
func (l *lexer) docLine() {
	l.pos += 3
	end := strings.IndexByte(l.src[l.pos:], '\n')
	if end < 0 {
		end = len(l.src) - l.pos
	}
	text := l.src[l.pos : l.pos+end]
	text = strings.TrimPrefix(text, " ")
	l.docs = append(l.docs, strings.TrimRight(text, "\r"))
	l.pos += end
}

// docBlock consumes a /** ... */ comment, recording each interior
// line with leading whitespace and asterisks stripped.
func (l *lexer) docBlock() error {
	l.pos += 3
	end := strings.Index(l.src[l.pos:], "*/")
	if end < 0 {
		return fmt.Errorf("line %d: unterminated block comment", l.line)
	}
	body := l.src[l.pos : l.pos+end]
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimLeft(line, " \t")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, " ")
		line = strings.TrimRight(line, " \t\r")
		if line != "" {
			l.docs = append(l.docs, line)
		}
	}
	l.line += strings.Count(body, "\n")
	l.pos += end + 2
	return nil
}

func (l *lexer) skipLine() {
	end := strings.IndexByte(l.src[l.pos:], '\n')
	if end < 0 {
		l.pos = len(l.src)
		return
	}
	l.pos += end
}

func (l *lexer) skipBlock() error {
	end := strings.Index(l.src[l.pos:], "*/")
	if end < 0 {
		return fmt.Errorf("line %d: unterminated block comment", l.line)
	}
	l.line += strings.Count(l.src[l.pos:l.pos+end], "\n")
	l.pos += end + 2
	return nil
}
