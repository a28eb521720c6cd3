package render3

import (
	"ngtsc-go/packages/compiler/src/expression_parser"
	"ngtsc-go/packages/compiler/src/util"
)

// Node is a template node produced from the declarative template tree.
type Node interface {
	SourceSpan() *util.ParseSourceSpan
	Visit(visitor Visitor) interface{}
}

// Located records where a node came from. Every node embeds it.
type Located struct {
	Span *util.ParseSourceSpan
}

func (l Located) SourceSpan() *util.ParseSourceSpan { return l.Span }

// Text is static text.
type Text struct {
	Located
	Value string
}

func (n *Text) Visit(v Visitor) interface{} { return v.VisitText(n) }

// BoundText is text holding at least one interpolation.
type BoundText struct {
	Located
	Value expression_parser.AST
}

func (n *BoundText) Visit(v Visitor) interface{} { return v.VisitBoundText(n) }

// TextAttribute is a plain `name="value"` attribute. Template attributes of an inline
// template without a value, such as the `ngFor` of `*ngFor="let x of xs"`, are text
// attributes with an empty value.
type TextAttribute struct {
	Located
	Name  string
	Value string
}

func (n *TextAttribute) Visit(v Visitor) interface{} { return v.VisitTextAttribute(n) }

// BoundAttribute is an input binding. Unit is only set for `[style.width.px]`.
type BoundAttribute struct {
	Located
	Name  string
	Type  expression_parser.BindingType
	Value expression_parser.AST
	Unit  string
}

func (n *BoundAttribute) Visit(v Visitor) interface{} { return v.VisitBoundAttribute(n) }

// BoundEvent is an output binding. Target is the `window` of `(window:resize)` and Phase
// the `done` of `(@fade.done)`.
type BoundEvent struct {
	Located
	Name    string
	Type    expression_parser.ParsedEventType
	Handler expression_parser.AST
	Target  string
	Phase   string
}

func (n *BoundEvent) Visit(v Visitor) interface{} { return v.VisitBoundEvent(n) }

// Element is a regular element.
type Element struct {
	Located
	Name       string
	Attributes []*TextAttribute
	Inputs     []*BoundAttribute
	Outputs    []*BoundEvent
	Children   []Node
	References []*Reference
}

func (n *Element) Visit(v Visitor) interface{} { return v.VisitElement(n) }

// Template is an `<ng-template>` or the wrapper created for an element carrying a
// structural directive (`<div *ngIf="x">`). For the wrapper TagName is the wrapped
// element's name, Inline is set and the microsyntax bindings live in TemplateAttrs.
type Template struct {
	Located
	Inline        bool
	TagName       string
	Attributes    []*TextAttribute
	Inputs        []*BoundAttribute
	Outputs       []*BoundEvent
	TemplateAttrs []Node // *BoundAttribute | *TextAttribute
	Children      []Node
	References    []*Reference
	Variables     []*Variable
}

func (n *Template) Visit(v Visitor) interface{} { return v.VisitTemplate(n) }

// IsInline reports whether the template was desugared from a `*` attribute.
func (n *Template) IsInline() bool {
	return n.Inline
}

// Content is `<ng-content>`.
type Content struct {
	Located
	Selector   string
	Attributes []*TextAttribute
	Children   []Node
}

func (n *Content) Visit(v Visitor) interface{} { return v.VisitContent(n) }

// Variable is `let-item` on an ng-template or `let item` in microsyntax.
type Variable struct {
	Located
	Name  string
	Value string
}

func (n *Variable) Visit(v Visitor) interface{} { return v.VisitVariable(n) }

// Reference is `#name` or `#name="exportAs"`.
type Reference struct {
	Located
	Name  string
	Value string
}

func (n *Reference) Visit(v Visitor) interface{} { return v.VisitReference(n) }

// Visitor visits template nodes
type Visitor interface {
	VisitElement(element *Element) interface{}
	VisitTemplate(template *Template) interface{}
	VisitContent(content *Content) interface{}
	VisitVariable(variable *Variable) interface{}
	VisitReference(reference *Reference) interface{}
	VisitTextAttribute(attribute *TextAttribute) interface{}
	VisitBoundAttribute(attribute *BoundAttribute) interface{}
	VisitBoundEvent(event *BoundEvent) interface{}
	VisitText(text *Text) interface{}
	VisitBoundText(text *BoundText) interface{}
}

// RecursiveVisitor walks a whole template and does nothing at the leaves. A visitor
// embedding it sets Outer to itself so that its own methods are reached while descending.
type RecursiveVisitor struct {
	Outer Visitor
}

func (rv *RecursiveVisitor) outer() Visitor {
	if rv.Outer == nil {
		return rv
	}
	return rv.Outer
}

func (rv *RecursiveVisitor) visitHost(attrs []*TextAttribute, inputs []*BoundAttribute, outputs []*BoundEvent) Visitor {
	v := rv.outer()
	for _, a := range attrs {
		v.VisitTextAttribute(a)
	}
	for _, in := range inputs {
		v.VisitBoundAttribute(in)
	}
	for _, out := range outputs {
		v.VisitBoundEvent(out)
	}
	return v
}

// VisitElement visits the element's bindings, then its children, then its references.
func (rv *RecursiveVisitor) VisitElement(element *Element) interface{} {
	v := rv.visitHost(element.Attributes, element.Inputs, element.Outputs)
	VisitAll(v, element.Children)
	for _, ref := range element.References {
		v.VisitReference(ref)
	}
	return nil
}

// VisitTemplate is VisitElement plus the template attributes before the children and the
// variables last.
func (rv *RecursiveVisitor) VisitTemplate(template *Template) interface{} {
	v := rv.visitHost(template.Attributes, template.Inputs, template.Outputs)
	VisitAll(v, template.TemplateAttrs)
	VisitAll(v, template.Children)
	for _, ref := range template.References {
		v.VisitReference(ref)
	}
	for _, variable := range template.Variables {
		v.VisitVariable(variable)
	}
	return nil
}

func (rv *RecursiveVisitor) VisitContent(content *Content) interface{} {
	VisitAll(rv.outer(), content.Children)
	return nil
}

func (*RecursiveVisitor) VisitVariable(*Variable) interface{}             { return nil }
func (*RecursiveVisitor) VisitReference(*Reference) interface{}           { return nil }
func (*RecursiveVisitor) VisitTextAttribute(*TextAttribute) interface{}   { return nil }
func (*RecursiveVisitor) VisitBoundAttribute(*BoundAttribute) interface{} { return nil }
func (*RecursiveVisitor) VisitBoundEvent(*BoundEvent) interface{}         { return nil }
func (*RecursiveVisitor) VisitText(*Text) interface{}                     { return nil }
func (*RecursiveVisitor) VisitBoundText(*BoundText) interface{}           { return nil }

// VisitAll visits nodes in order and keeps the non-nil results.
func VisitAll(visitor Visitor, nodes []Node) []interface{} {
	var results []interface{}
	for _, node := range nodes {
		if result := node.Visit(visitor); result != nil {
			results = append(results, result)
		}
	}
	return results
}
