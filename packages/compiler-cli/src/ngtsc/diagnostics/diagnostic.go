package diagnostics

import (
	"fmt"
	"strings"
)

// Category is the severity of a diagnostic
type Category int

const (
	CategoryError Category = iota
	CategoryWarning
	CategoryMessage
)

func (c Category) String() string {
	switch c {
	case CategoryError:
		return "error"
	case CategoryWarning:
		return "warning"
	default:
		return "message"
	}
}

// RelatedInformation points at another location that explains a diagnostic.
type RelatedInformation struct {
	FileName string
	// Node is the name of the declaration or expression the information is about.
	Node        string
	MessageText string
}

// Diagnostic is a user-facing problem found while analysing the program.
type Diagnostic struct {
	Code        ErrorCode
	Category    Category
	FileName    string
	Node        string
	MessageText string
	Related     []RelatedInformation
}

// MakeDiagnostic creates an error diagnostic about node in fileName.
func MakeDiagnostic(code ErrorCode, fileName, node, messageText string, related ...RelatedInformation) *Diagnostic {
	return &Diagnostic{
		Code:        code,
		Category:    CategoryError,
		FileName:    fileName,
		Node:        node,
		MessageText: messageText,
		Related:     related,
	}
}

// MakeRelatedInformation creates a RelatedInformation
func MakeRelatedInformation(fileName, node, messageText string) RelatedInformation {
	return RelatedInformation{FileName: fileName, Node: node, MessageText: messageText}
}

// Error makes a Diagnostic usable as an error
func (d *Diagnostic) Error() string {
	return d.String()
}

func (d *Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s: %s", d.FileName, d.Category, FormatCode(d.Code), d.MessageText)
	for _, info := range d.Related {
		fmt.Fprintf(&sb, "\n  %s (%s): %s", info.FileName, info.Node, info.MessageText)
	}
	return sb.String()
}

// HasErrors reports whether any of the diagnostics is an error
func HasErrors(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d.Category == CategoryError {
			return true
		}
	}
	return false
}
