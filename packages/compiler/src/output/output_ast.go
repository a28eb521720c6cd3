package output

import (
	"ngtsc-go/packages/compiler/src/util"
)

// OutputExpression is an expression of the output AST. Only the forms needed to refer to
// declarations from generated code exist here.
type OutputExpression interface {
	VisitExpression(visitor ExpressionVisitor, context interface{}) interface{}
	IsEquivalent(e OutputExpression) bool
	GetSourceSpan() *util.ParseSourceSpan
}

// ExpressionVisitor visits output expressions
type ExpressionVisitor interface {
	VisitReadVarExpr(ast *ReadVarExpr, context interface{}) interface{}
	VisitExternalExpr(ast *ExternalExpr, context interface{}) interface{}
	VisitWrappedNodeExpr(ast *WrappedNodeExpr, context interface{}) interface{}
}

// ExpressionBase holds the fields shared by all expressions
type ExpressionBase struct {
	SourceSpan *util.ParseSourceSpan
}

// GetSourceSpan returns the source span
func (e *ExpressionBase) GetSourceSpan() *util.ParseSourceSpan {
	return e.SourceSpan
}

// ReadVarExpr reads a variable in scope of the generated code
type ReadVarExpr struct {
	ExpressionBase
	Name string
}

// NewReadVarExpr creates a new ReadVarExpr
func NewReadVarExpr(name string, sourceSpan *util.ParseSourceSpan) *ReadVarExpr {
	return &ReadVarExpr{ExpressionBase: ExpressionBase{SourceSpan: sourceSpan}, Name: name}
}

func (r *ReadVarExpr) VisitExpression(visitor ExpressionVisitor, context interface{}) interface{} {
	return visitor.VisitReadVarExpr(r, context)
}

func (r *ReadVarExpr) IsEquivalent(e OutputExpression) bool {
	if other, ok := e.(*ReadVarExpr); ok {
		return r.Name == other.Name
	}
	return false
}

// ExternalReference names a symbol exported by a module. A nil ModuleName refers to the file
// being generated.
type ExternalReference struct {
	ModuleName *string
	Name       *string
}

// ExternalExpr refers to an imported symbol
type ExternalExpr struct {
	ExpressionBase
	Value *ExternalReference
}

// NewExternalExpr creates a new ExternalExpr
func NewExternalExpr(value *ExternalReference, sourceSpan *util.ParseSourceSpan) *ExternalExpr {
	return &ExternalExpr{ExpressionBase: ExpressionBase{SourceSpan: sourceSpan}, Value: value}
}

// NewExternalExprOf is a shorthand for an ExternalExpr importing name from moduleName.
func NewExternalExprOf(moduleName, name string) *ExternalExpr {
	var module *string
	if moduleName != "" {
		module = &moduleName
	}
	return NewExternalExpr(&ExternalReference{ModuleName: module, Name: &name}, nil)
}

func (e *ExternalExpr) VisitExpression(visitor ExpressionVisitor, context interface{}) interface{} {
	return visitor.VisitExternalExpr(e, context)
}

func (e *ExternalExpr) IsEquivalent(other OutputExpression) bool {
	o, ok := other.(*ExternalExpr)
	if !ok {
		return false
	}
	return equalStrPtr(e.Value.Name, o.Value.Name) && equalStrPtr(e.Value.ModuleName, o.Value.ModuleName)
}

func equalStrPtr(a, b *string) bool {
	return a == b || (a != nil && b != nil && *a == *b)
}

// WrappedNodeExpr wraps a node of the host program, for example a declaration
type WrappedNodeExpr struct {
	ExpressionBase
	Node interface{}
}

// NewWrappedNodeExpr creates a new WrappedNodeExpr
func NewWrappedNodeExpr(node interface{}, sourceSpan *util.ParseSourceSpan) *WrappedNodeExpr {
	return &WrappedNodeExpr{ExpressionBase: ExpressionBase{SourceSpan: sourceSpan}, Node: node}
}

func (w *WrappedNodeExpr) VisitExpression(visitor ExpressionVisitor, context interface{}) interface{} {
	return visitor.VisitWrappedNodeExpr(w, context)
}

func (w *WrappedNodeExpr) IsEquivalent(e OutputExpression) bool {
	if other, ok := e.(*WrappedNodeExpr); ok {
		return w.Node == other.Node
	}
	return false
}
