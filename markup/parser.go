// Package markup turns HTML fragments into mutable element trees and renders
// them back into formatted fragment text.
package markup

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WarnAutoClosed is reported when parser had to close unbalanced tags.
const WarnAutoClosed = "Auto-closed unclosed HTML tags"

// ParseError is returned when input cannot be interpreted as markup. Callers
// must not proceed with the tree on this error.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to parse HTML: %s: %v", e.Reason, e.Err)
	}
	return "unable to parse HTML: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Document is the result of successful parsing.
type Document struct {
	Tree *Tree
	// Warnings are advisory and never block processing.
	Warnings []string
}

// Parser parses HTML fragments.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new fragment parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("markup")}
}

// Parse parses src as content of a document body. Markup errors HTML parser
// can recover from are corrected silently and reported as warnings.
func (p *Parser) Parse(src string) (*Document, error) {
	if !utf8.ValidString(src) {
		return nil, &ParseError{Reason: "input is not valid UTF-8 text"}
	}

	// fragment is always parsed in body context, we never produce full document
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

	nodes, err := html.ParseFragment(strings.NewReader(src), root)
	if err != nil {
		return nil, &ParseError{Reason: "malformed markup", Err: err}
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	doc := &Document{Tree: &Tree{root: root}}

	if opened, closed := tagBalance(src); opened != closed {
		p.log.Debug("Unbalanced tags in source", zap.Int("opened", opened), zap.Int("closed", closed))
		doc.Warnings = append(doc.Warnings, WarnAutoClosed)
	}

	p.log.Debug("Fragment parsed", zap.Int("bytes", len(src)), zap.Int("elements", doc.Tree.Len()))
	return doc, nil
}
