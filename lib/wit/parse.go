// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package wit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ParseDir parses every top-level .wit file in dir into one Package.
// Files are processed in name order. Dependency directories are not
// descended; foreign references simply stay unresolved.
func ParseDir(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading WIT directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".wit") {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .wit files in %s", dir)
	}
	sort.Strings(files)

	pkg := &Package{}
	for _, name := range files {
		source, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := parseInto(pkg, string(source)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return pkg, nil
}

// Parse parses a single WIT source text into a Package.
func Parse(source string) (*Package, error) {
	pkg := &Package{}
	if err := parseInto(pkg, source); err != nil {
		return nil, err
	}
	return pkg, nil
}

func parseInto(pkg *Package, source string) error {
	tokens, err := lex(source)
	if err != nil {
		return err
	}
	p := &parser{tokens: tokens, pkg: pkg}
	return p.file()
}

type parser struct {
	tokens []token
	pos    int
	pkg    *Package
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", tok.line, fmt.Sprintf(format, args...))
}

func (p *parser) expectWord() (token, error) {
	tok := p.advance()
	if tok.kind != tokenWord {
		return tok, p.errorf(tok, "expected identifier, found %q", tok.text)
	}
	return tok, nil
}

func (p *parser) expectPunct(text string) error {
	tok := p.advance()
	if tok.kind != tokenPunct || tok.text != text {
		return p.errorf(tok, "expected %q, found %q", text, tok.text)
	}
	return nil
}

func (p *parser) isPunct(text string) bool {
	tok := p.peek()
	return tok.kind == tokenPunct && tok.text == text
}

// file parses top-level items until EOF.
func (p *parser) file() error {
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokenEOF:
			return nil
		case tok.kind == tokenPunct && tok.text == "@":
			if err := p.skipAttribute(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "package":
			if err := p.packageDecl(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "world":
			if err := p.world(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "interface":
			if err := p.interfaceDecl(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "use":
			if err := p.skipStatement(); err != nil {
				return err
			}
		default:
			return p.errorf(tok, "unexpected %q at top level", tok.text)
		}
	}
}

// packageDecl parses `package ns:name[@version];` or the braced
// multi-package form. The first declaration wins; a second package
// with a different identity is an error only in the flat form, while
// extra braced packages (vendored dependencies) are skipped.
func (p *parser) packageDecl() error {
	p.advance() // package
	ns, err := p.expectWord()
	if err != nil {
		return err
	}
	if err := p.expectPunct(":"); err != nil {
		return err
	}
	name, err := p.expectWord()
	if err != nil {
		return err
	}
	version := ""
	if p.isPunct("@") {
		p.advance()
		v, err := p.expectWord()
		if err != nil {
			return err
		}
		version = v.text
	}

	adopt := p.pkg.Namespace == "" && p.pkg.Name == ""
	if adopt {
		p.pkg.Namespace = ns.text
		p.pkg.Name = name.text
		p.pkg.Version = version
	} else if p.pkg.Namespace != ns.text || p.pkg.Name != name.text {
		if p.isPunct("{") {
			return p.skipBalancedBraces()
		}
		return p.errorf(ns, "conflicting package declaration %s:%s", ns.text, name.text)
	}

	if p.isPunct("{") {
		// Braced form: the items inside belong to this package.
		p.advance()
		return p.items(true)
	}
	return p.expectPunct(";")
}

// world parses a world declaration.
func (p *parser) world() error {
	p.advance() // world
	name, err := p.expectWord()
	if err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}

	world := &World{Name: name.text}
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokenEOF:
			return p.errorf(tok, "unterminated world %q", world.Name)
		case tok.kind == tokenPunct && tok.text == "}":
			p.advance()
			p.pkg.Worlds = append(p.pkg.Worlds, world)
			return nil
		case tok.kind == tokenPunct && tok.text == "@":
			if err := p.skipAttribute(); err != nil {
				return err
			}
		case tok.kind == tokenWord && (tok.text == "import" || tok.text == "export"):
			if err := p.worldExtern(world, tok.text == "import"); err != nil {
				return err
			}
		case tok.kind == tokenWord && (tok.text == "include" || tok.text == "use"):
			if err := p.skipStatement(); err != nil {
				return err
			}
		case tok.kind == tokenWord && isTypeDefKeyword(tok.text):
			def, err := p.typeDef()
			if err != nil {
				return err
			}
			world.Types = append(world.Types, def)
		default:
			return p.errorf(tok, "unexpected %q in world %q", tok.text, world.Name)
		}
	}
}

// worldExtern parses one import or export statement. Only locally
// named interfaces land in the world's Imports/Exports; foreign
// paths and function externs are skipped, and inline interfaces are
// collected with the extern name.
func (p *parser) worldExtern(world *World, isImport bool) error {
	p.advance() // import / export
	name, err := p.expectWord()
	if err != nil {
		return err
	}

	switch {
	case p.isPunct(";"):
		p.advance()
		if isImport {
			world.Imports = append(world.Imports, name.text)
		} else {
			world.Exports = append(world.Exports, name.text)
		}
		return nil

	case p.isPunct(":"):
		p.advance()
		next := p.peek()
		if next.kind == tokenWord && next.text == "interface" {
			p.advance()
			if err := p.expectPunct("{"); err != nil {
				return err
			}
			iface := &Interface{Name: name.text}
			if err := p.interfaceBody(iface); err != nil {
				return err
			}
			world.Inline = append(world.Inline, iface)
			if p.isPunct(";") {
				p.advance()
			}
			return nil
		}
		// Function extern or some future form: skip the statement.
		return p.skipStatement()

	default:
		// Foreign path (ns:pkg/name[@version]): consume up to the
		// terminating semicolon.
		return p.skipStatement()
	}
}

// interfaceDecl parses a named top-level interface.
func (p *parser) interfaceDecl() error {
	p.advance() // interface
	name, err := p.expectWord()
	if err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	iface := &Interface{Name: name.text}
	if err := p.interfaceBody(iface); err != nil {
		return err
	}
	p.pkg.Interfaces = append(p.pkg.Interfaces, iface)
	return nil
}

// interfaceBody parses interface items up to and including the
// closing brace.
func (p *parser) interfaceBody(iface *Interface) error {
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokenEOF:
			return p.errorf(tok, "unterminated interface %q", iface.Name)
		case tok.kind == tokenPunct && tok.text == "}":
			p.advance()
			return nil
		case tok.kind == tokenPunct && tok.text == "@":
			if err := p.skipAttribute(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "use":
			if err := p.skipStatement(); err != nil {
				return err
			}
		case tok.kind == tokenWord && isTypeDefKeyword(tok.text):
			def, err := p.typeDef()
			if err != nil {
				return err
			}
			iface.Types = append(iface.Types, def)
		case tok.kind == tokenWord:
			// name: func(...) -> result;
			if err := p.skipStatement(); err != nil {
				return err
			}
		default:
			return p.errorf(tok, "unexpected %q in interface %q", tok.text, iface.Name)
		}
	}
}

func isTypeDefKeyword(word string) bool {
	switch word {
	case "record", "enum", "variant", "flags", "type", "resource":
		return true
	}
	return false
}

// typeDef parses one type definition.
func (p *parser) typeDef() (*TypeDef, error) {
	keyword := p.advance()
	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	def := &TypeDef{Name: name.text}

	switch keyword.text {
	case "record":
		def.Kind = KindRecord
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		if err := p.recordFields(def); err != nil {
			return nil, err
		}

	case "enum":
		def.Kind = KindEnum
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		if err := p.enumCases(def); err != nil {
			return nil, err
		}

	case "type":
		def.Kind = KindAlias
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		target, err := p.typeRef()
		if err != nil {
			return nil, err
		}
		def.Alias = target
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}

	case "resource":
		def.Kind = KindOther
		if p.isPunct("{") {
			if err := p.skipBalancedBraces(); err != nil {
				return nil, err
			}
		} else if p.isPunct(";") {
			p.advance()
		}

	default: // variant, flags
		def.Kind = KindOther
		if err := p.skipBalancedBraces(); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// recordFields parses `name: type,` entries up to the closing brace.
func (p *parser) recordFields(def *TypeDef) error {
	for {
		tok := p.peek()
		if tok.kind == tokenPunct && tok.text == "}" {
			p.advance()
			return nil
		}
		if tok.kind == tokenPunct && tok.text == "@" {
			if err := p.skipAttribute(); err != nil {
				return err
			}
			continue
		}
		name, err := p.expectWord()
		if err != nil {
			return err
		}
		if err := p.expectPunct(":"); err != nil {
			return err
		}
		fieldType, err := p.typeRef()
		if err != nil {
			return err
		}
		def.Fields = append(def.Fields, Field{
			Name: name.text,
			Type: fieldType,
			Docs: name.docs,
		})
		if p.isPunct(",") {
			p.advance()
		}
	}
}

// enumCases parses bare case names up to the closing brace.
func (p *parser) enumCases(def *TypeDef) error {
	for {
		tok := p.peek()
		if tok.kind == tokenPunct && tok.text == "}" {
			p.advance()
			return nil
		}
		if tok.kind == tokenPunct && tok.text == "@" {
			if err := p.skipAttribute(); err != nil {
				return err
			}
			continue
		}
		name, err := p.expectWord()
		if err != nil {
			return err
		}
		def.Cases = append(def.Cases, name.text)
		if p.isPunct(",") {
			p.advance()
		}
	}
}

// typeRef parses `name` or `name<arg, arg>`.
func (p *parser) typeRef() (*TypeRef, error) {
	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	ref := &TypeRef{Base: name.text}
	if !p.isPunct("<") {
		return ref, nil
	}
	p.advance()
	for {
		arg, err := p.typeRef()
		if err != nil {
			return nil, err
		}
		ref.Args = append(ref.Args, arg)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		if p.isPunct(">") {
			p.advance()
			return ref, nil
		}
		return nil, p.errorf(p.peek(), "expected ',' or '>' in type arguments")
	}
}

// items parses top-level items inside a braced package body.
func (p *parser) items(untilBrace bool) error {
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokenEOF:
			if untilBrace {
				return p.errorf(tok, "unterminated package body")
			}
			return nil
		case untilBrace && tok.kind == tokenPunct && tok.text == "}":
			p.advance()
			return nil
		case tok.kind == tokenPunct && tok.text == "@":
			if err := p.skipAttribute(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "world":
			if err := p.world(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "interface":
			if err := p.interfaceDecl(); err != nil {
				return err
			}
		case tok.kind == tokenWord && tok.text == "use":
			if err := p.skipStatement(); err != nil {
				return err
			}
		default:
			return p.errorf(tok, "unexpected %q in package body", tok.text)
		}
	}
}

// skipStatement consumes tokens through the next semicolon at brace
// depth zero. Braced bodies inside the statement (inline interfaces,
// use lists) are skipped whole.
func (p *parser) skipStatement() error {
	depth := 0
	for {
		tok := p.advance()
		switch {
		case tok.kind == tokenEOF:
			return p.errorf(tok, "unterminated statement")
		case tok.kind == tokenPunct && tok.text == "{":
			depth++
		case tok.kind == tokenPunct && tok.text == "}":
			depth--
			if depth < 0 {
				return p.errorf(tok, "unbalanced braces")
			}
		case tok.kind == tokenPunct && tok.text == ";" && depth == 0:
			return nil
		}
	}
}

// skipBalancedBraces consumes a brace-delimited block starting at the
// current opening brace.
func (p *parser) skipBalancedBraces() error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch {
		case tok.kind == tokenEOF:
			return p.errorf(tok, "unbalanced braces")
		case tok.kind == tokenPunct && tok.text == "{":
			depth++
		case tok.kind == tokenPunct && tok.text == "}":
			depth--
		}
	}
	return nil
}

// skipAttribute consumes `@name` plus an optional parenthesized
// argument list.
func (p *parser) skipAttribute() error {
	p.advance() // @
	if _, err := p.expectWord(); err != nil {
		return err
	}
	if !p.isPunct("(") {
		return nil
	}
	p.advance()
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch {
		case tok.kind == tokenEOF:
			return p.errorf(tok, "unterminated attribute")
		case tok.kind == tokenPunct && tok.text == "(":
			depth++
		case tok.kind == tokenPunct && tok.text == ")":
			depth--
		}
	}
	return nil
}
