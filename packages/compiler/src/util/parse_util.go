package util

import "fmt"

// ParseSourceFile names a template in locations. Templates written as node trees have no
// text of their own, so Content is often empty.
type ParseSourceFile struct {
	Content string
	URL     string
}

// NewParseSourceFile creates a new ParseSourceFile
func NewParseSourceFile(content, url string) *ParseSourceFile {
	return &ParseSourceFile{Content: content, URL: url}
}

// At returns the location of a 1-based line. Line 0 means the line is unknown.
func (f *ParseSourceFile) At(line, col int) *ParseLocation {
	return &ParseLocation{File: f, Line: line, Col: col}
}

// Span returns an empty span at a 1-based line
func (f *ParseSourceFile) Span(line int) *ParseSourceSpan {
	loc := f.At(line, 0)
	return NewParseSourceSpan(loc, loc, nil)
}

// ParseLocation is a position in a template
type ParseLocation struct {
	File *ParseSourceFile
	Line int
	Col  int
}

func (p *ParseLocation) String() string {
	if p.Line <= 0 {
		return p.File.URL
	}
	return fmt.Sprintf("%s@%d:%d", p.File.URL, p.Line, p.Col)
}

// ParseSourceSpan is a range of a template
type ParseSourceSpan struct {
	Start   *ParseLocation
	End     *ParseLocation
	Details *string
}

// NewParseSourceSpan creates a new ParseSourceSpan
func NewParseSourceSpan(start, end *ParseLocation, details *string) *ParseSourceSpan {
	return &ParseSourceSpan{Start: start, End: end, Details: details}
}

func (p *ParseSourceSpan) String() string {
	return p.Start.String()
}

// ParseError is an error found while interpreting a template. Span is nil for errors of
// expressions parsed outside of any template.
type ParseError struct {
	Span *ParseSourceSpan
	Msg  string
}

// NewParseError creates a new ParseError
func NewParseError(span *ParseSourceSpan, msg string) *ParseError {
	return &ParseError{Span: span, Msg: msg}
}

func (p *ParseError) Error() string {
	if p.Span == nil || p.Span.Start == nil {
		return p.Msg
	}
	details := ""
	if p.Span.Details != nil {
		details = ", " + *p.Span.Details
	}
	return fmt.Sprintf("%s: %s%s", p.Msg, p.Span.Start, details)
}
