package scripts

import (
	"bytes"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/reusee/bridgestr/bridges"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FileOptions is the dialect of scripts and REPL input.
var FileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Sources keeps the text of loaded scripts so that functions defined in them
// can be printed back as their definitions.
type Sources struct {
	mu    sync.RWMutex
	files map[string]*sourceFile
}

type sourceFile struct {
	syntax     *syntax.File
	content    []byte
	lineStarts []int
}

func NewSources() *Sources {
	return &Sources{
		files: make(map[string]*sourceFile),
	}
}

// Add indexes a parsed file. A later file with the same path replaces the earlier one.
func (s *Sources) Add(file *syntax.File, content []byte) {
	lineStarts := []int{0}
	for i, b := range content {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[file.Path] = &sourceFile{
		syntax:     file,
		content:    content,
		lineStarts: lineStarts,
	}
}

// Parse parses content and indexes it.
func (s *Sources) Parse(filename string, content []byte) (*syntax.File, error) {
	file, err := FileOptions.Parse(filename, content, 0)
	if err != nil {
		return nil, err
	}
	s.Add(file, content)
	return file, nil
}

// FunctionSource returns the def statement or lambda expression fn was created from.
func (s *Sources) FunctionSource(fn *starlark.Function) (string, error) {
	pos := fn.Position()

	s.mu.RLock()
	file, ok := s.files[pos.Filename()]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s: file %s not loaded", bridges.ErrSourceUnavailable, fn.Name(), pos.Filename())
	}

	var found syntax.Node
	syntax.Walk(file.syntax, func(node syntax.Node) bool {
		if found != nil {
			return false
		}
		switch node := node.(type) {
		case *syntax.DefStmt:
			if samePosition(node.Def, pos) {
				found = node
			}
		case *syntax.LambdaExpr:
			if samePosition(node.Lambda, pos) {
				found = node
			}
		}
		return found == nil
	})
	if found == nil {
		return "", fmt.Errorf("%w: %s: no definition at %s", bridges.ErrSourceUnavailable, fn.Name(), pos)
	}

	start, end := found.Span()
	return string(file.slice(start, end)), nil
}

// SourceOf resolves Starlark functions from the index and defers everything else to next.
func (s *Sources) SourceOf(next bridges.SourceFunc) bridges.SourceFunc {
	if next == nil {
		next = bridges.DefaultSource
	}
	return func(callable any) (string, error) {
		if fn, ok := callable.(*starlark.Function); ok {
			return s.FunctionSource(fn)
		}
		return next(callable)
	}
}

// Encoder returns a copy of base that prints Starlark functions from this index.
func (s *Sources) Encoder(base *bridges.Encoder) *bridges.Encoder {
	return base.WithSource(s.SourceOf(base.SourceOf))
}

func samePosition(a, b syntax.Position) bool {
	return a.Line == b.Line && a.Col == b.Col
}

func (f *sourceFile) slice(start, end syntax.Position) []byte {
	from := f.offset(start)
	to := f.offset(end)
	if to < from {
		to = from
	}
	return bytes.TrimRight(f.content[from:to], " \t\r\n")
}

// offset converts a 1-based line and rune column to a byte offset.
func (f *sourceFile) offset(pos syntax.Position) int {
	line := int(pos.Line)
	if line < 1 {
		return 0
	}
	if line > len(f.lineStarts) {
		return len(f.content)
	}
	offset := f.lineStarts[line-1]
	for col := int32(1); col < pos.Col && offset < len(f.content); col++ {
		if f.content[offset] == '\n' {
			break
		}
		_, size := utf8.DecodeRune(f.content[offset:])
		offset += size
	}
	return offset
}
