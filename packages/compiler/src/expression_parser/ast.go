package expression_parser

import (
	"ngtsc-go/packages/compiler/src/util"
)

// ParseSpan represents a span within an expression, relative to the expression start.
type ParseSpan struct {
	Start int
	End   int
}

// NewParseSpan creates a new ParseSpan
func NewParseSpan(start, end int) *ParseSpan {
	return &ParseSpan{Start: start, End: end}
}

// ToAbsolute converts a ParseSpan to an AbsoluteSourceSpan
func (ps *ParseSpan) ToAbsolute(absoluteOffset int) *AbsoluteSourceSpan {
	return NewAbsoluteSourceSpan(absoluteOffset+ps.Start, absoluteOffset+ps.End)
}

// AbsoluteSourceSpan records the absolute position of a text span in a source file
type AbsoluteSourceSpan struct {
	Start int
	End   int
}

// NewAbsoluteSourceSpan creates a new AbsoluteSourceSpan
func NewAbsoluteSourceSpan(start, end int) *AbsoluteSourceSpan {
	return &AbsoluteSourceSpan{Start: start, End: end}
}

// AST is the base interface for all expression nodes.
type AST interface {
	Span() *ParseSpan
	SourceSpan() *AbsoluteSourceSpan
	Visit(visitor AstVisitor, context interface{}) interface{}
}

type spans struct {
	span       *ParseSpan
	sourceSpan *AbsoluteSourceSpan
}

// Span returns the parse span
func (s *spans) Span() *ParseSpan {
	return s.span
}

// SourceSpan returns the absolute source span
func (s *spans) SourceSpan() *AbsoluteSourceSpan {
	return s.sourceSpan
}

// EmptyExpr represents an empty expression
type EmptyExpr struct {
	spans
}

// NewEmptyExpr creates a new EmptyExpr
func NewEmptyExpr(span *ParseSpan, sourceSpan *AbsoluteSourceSpan) *EmptyExpr {
	return &EmptyExpr{spans{span, sourceSpan}}
}

func (e *EmptyExpr) Visit(visitor AstVisitor, context interface{}) interface{} {
	return nil
}

// ImplicitReceiver is the receiver of bare identifiers: `foo` is `ImplicitReceiver.foo`.
type ImplicitReceiver struct {
	spans
}

// NewImplicitReceiver creates a new ImplicitReceiver
func NewImplicitReceiver(span *ParseSpan, sourceSpan *AbsoluteSourceSpan) *ImplicitReceiver {
	return &ImplicitReceiver{spans{span, sourceSpan}}
}

func (i *ImplicitReceiver) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitImplicitReceiver(i, context)
}

// ThisReceiver is the receiver of an explicit `this.` access. Template locals are never
// resolved through it.
type ThisReceiver struct {
	spans
}

// NewThisReceiver creates a new ThisReceiver
func NewThisReceiver(span *ParseSpan, sourceSpan *AbsoluteSourceSpan) *ThisReceiver {
	return &ThisReceiver{spans{span, sourceSpan}}
}

func (t *ThisReceiver) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitThisReceiver(t, context)
}

// Chain is a `;` separated list of action expressions.
type Chain struct {
	spans
	Expressions []AST
}

// NewChain creates a new Chain
func NewChain(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, expressions []AST) *Chain {
	return &Chain{spans: spans{span, sourceSpan}, Expressions: expressions}
}

func (c *Chain) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitChain(c, context)
}

// Conditional represents `cond ? a : b`
type Conditional struct {
	spans
	Condition AST
	TrueExp   AST
	FalseExp  AST
}

// NewConditional creates a new Conditional
func NewConditional(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, condition, trueExp, falseExp AST) *Conditional {
	return &Conditional{spans: spans{span, sourceSpan}, Condition: condition, TrueExp: trueExp, FalseExp: falseExp}
}

func (c *Conditional) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitConditional(c, context)
}

// PropertyRead represents `receiver.name`
type PropertyRead struct {
	spans
	NameSpan *AbsoluteSourceSpan
	Receiver AST
	Name     string
}

// NewPropertyRead creates a new PropertyRead
func NewPropertyRead(span *ParseSpan, sourceSpan, nameSpan *AbsoluteSourceSpan, receiver AST, name string) *PropertyRead {
	return &PropertyRead{spans: spans{span, sourceSpan}, NameSpan: nameSpan, Receiver: receiver, Name: name}
}

func (p *PropertyRead) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitPropertyRead(p, context)
}

// SafePropertyRead represents `receiver?.name`
type SafePropertyRead struct {
	spans
	NameSpan *AbsoluteSourceSpan
	Receiver AST
	Name     string
}

// NewSafePropertyRead creates a new SafePropertyRead
func NewSafePropertyRead(span *ParseSpan, sourceSpan, nameSpan *AbsoluteSourceSpan, receiver AST, name string) *SafePropertyRead {
	return &SafePropertyRead{spans: spans{span, sourceSpan}, NameSpan: nameSpan, Receiver: receiver, Name: name}
}

func (s *SafePropertyRead) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitSafePropertyRead(s, context)
}

// PropertyWrite represents `receiver.name = value` inside event handlers.
type PropertyWrite struct {
	spans
	NameSpan *AbsoluteSourceSpan
	Receiver AST
	Name     string
	Value    AST
}

// NewPropertyWrite creates a new PropertyWrite
func NewPropertyWrite(span *ParseSpan, sourceSpan, nameSpan *AbsoluteSourceSpan, receiver AST, name string, value AST) *PropertyWrite {
	return &PropertyWrite{spans: spans{span, sourceSpan}, NameSpan: nameSpan, Receiver: receiver, Name: name, Value: value}
}

func (p *PropertyWrite) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitPropertyWrite(p, context)
}

// KeyedRead represents `receiver[key]`
type KeyedRead struct {
	spans
	Receiver AST
	Key      AST
}

// NewKeyedRead creates a new KeyedRead
func NewKeyedRead(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, receiver, key AST) *KeyedRead {
	return &KeyedRead{spans: spans{span, sourceSpan}, Receiver: receiver, Key: key}
}

func (k *KeyedRead) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitKeyedRead(k, context)
}

// BindingPipe represents `exp | name:arg1:arg2`
type BindingPipe struct {
	spans
	NameSpan *AbsoluteSourceSpan
	Exp      AST
	Name     string
	Args     []AST
}

// NewBindingPipe creates a new BindingPipe
func NewBindingPipe(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, exp AST, name string, args []AST, nameSpan *AbsoluteSourceSpan) *BindingPipe {
	return &BindingPipe{spans: spans{span, sourceSpan}, NameSpan: nameSpan, Exp: exp, Name: name, Args: args}
}

func (b *BindingPipe) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitPipe(b, context)
}

// LiteralPrimitive holds a string, float64, bool or nil (null). Undefined is represented
// by the Undefined sentinel.
type LiteralPrimitive struct {
	spans
	Value interface{}
}

type undefinedValue struct{}

// Undefined is the value of the `undefined` literal.
var Undefined = undefinedValue{}

// NewLiteralPrimitive creates a new LiteralPrimitive
func NewLiteralPrimitive(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, value interface{}) *LiteralPrimitive {
	return &LiteralPrimitive{spans: spans{span, sourceSpan}, Value: value}
}

func (l *LiteralPrimitive) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitLiteralPrimitive(l, context)
}

// LiteralArray represents `[a, b]`
type LiteralArray struct {
	spans
	Expressions []AST
}

// NewLiteralArray creates a new LiteralArray
func NewLiteralArray(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, expressions []AST) *LiteralArray {
	return &LiteralArray{spans: spans{span, sourceSpan}, Expressions: expressions}
}

func (l *LiteralArray) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitLiteralArray(l, context)
}

// LiteralMapKey is a key of a literal map
type LiteralMapKey struct {
	Key    string
	Quoted bool
}

// LiteralMap represents `{a: 1, 'b': 2}`
type LiteralMap struct {
	spans
	Keys   []LiteralMapKey
	Values []AST
}

// NewLiteralMap creates a new LiteralMap
func NewLiteralMap(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, keys []LiteralMapKey, values []AST) *LiteralMap {
	return &LiteralMap{spans: spans{span, sourceSpan}, Keys: keys, Values: values}
}

func (l *LiteralMap) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitLiteralMap(l, context)
}

// Interpolation represents `text {{ expr }} text`. Strings has one more entry than
// Expressions.
type Interpolation struct {
	spans
	Strings     []string
	Expressions []AST
}

// NewInterpolation creates a new Interpolation
func NewInterpolation(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, strs []string, expressions []AST) *Interpolation {
	return &Interpolation{spans: spans{span, sourceSpan}, Strings: strs, Expressions: expressions}
}

func (i *Interpolation) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitInterpolation(i, context)
}

// Binary represents `left op right`
type Binary struct {
	spans
	Operation string
	Left      AST
	Right     AST
}

// NewBinary creates a new Binary
func NewBinary(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, operation string, left, right AST) *Binary {
	return &Binary{spans: spans{span, sourceSpan}, Operation: operation, Left: left, Right: right}
}

func (b *Binary) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitBinary(b, context)
}

// Unary represents `-expr` and `+expr`
type Unary struct {
	spans
	Operator string
	Expr     AST
}

// NewUnary creates a new Unary
func NewUnary(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, operator string, expr AST) *Unary {
	return &Unary{spans: spans{span, sourceSpan}, Operator: operator, Expr: expr}
}

func (u *Unary) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitUnary(u, context)
}

// PrefixNot represents `!expr`
type PrefixNot struct {
	spans
	Expression AST
}

// NewPrefixNot creates a new PrefixNot
func NewPrefixNot(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, expression AST) *PrefixNot {
	return &PrefixNot{spans: spans{span, sourceSpan}, Expression: expression}
}

func (p *PrefixNot) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitPrefixNot(p, context)
}

// NonNullAssert represents `expr!`
type NonNullAssert struct {
	spans
	Expression AST
}

// NewNonNullAssert creates a new NonNullAssert
func NewNonNullAssert(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, expression AST) *NonNullAssert {
	return &NonNullAssert{spans: spans{span, sourceSpan}, Expression: expression}
}

func (n *NonNullAssert) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitNonNullAssert(n, context)
}

// Call represents `receiver(args)`
type Call struct {
	spans
	Receiver AST
	Args     []AST
}

// NewCall creates a new Call
func NewCall(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, receiver AST, args []AST) *Call {
	return &Call{spans: spans{span, sourceSpan}, Receiver: receiver, Args: args}
}

func (c *Call) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitCall(c, context)
}

// SafeCall represents `receiver?.(args)`
type SafeCall struct {
	spans
	Receiver AST
	Args     []AST
}

// NewSafeCall creates a new SafeCall
func NewSafeCall(span *ParseSpan, sourceSpan *AbsoluteSourceSpan, receiver AST, args []AST) *SafeCall {
	return &SafeCall{spans: spans{span, sourceSpan}, Receiver: receiver, Args: args}
}

func (s *SafeCall) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitSafeCall(s, context)
}

// ASTWithSource wraps a top level expression together with its source text.
type ASTWithSource struct {
	spans
	AST            AST
	Source         string
	Location       string
	AbsoluteOffset int
	Errors         []*util.ParseError
}

// NewASTWithSource creates a new ASTWithSource
func NewASTWithSource(ast AST, source string, location string, absoluteOffset int, errors []*util.ParseError) *ASTWithSource {
	return &ASTWithSource{
		spans:          spans{NewParseSpan(0, len(source)), NewAbsoluteSourceSpan(absoluteOffset, absoluteOffset+len(source))},
		AST:            ast,
		Source:         source,
		Location:       location,
		AbsoluteOffset: absoluteOffset,
		Errors:         errors,
	}
}

func (a *ASTWithSource) Visit(visitor AstVisitor, context interface{}) interface{} {
	return visitor.VisitASTWithSource(a, context)
}

// BindingType is the kind of a property binding on an element.
type BindingType int

const (
	// BindingTypeProperty is a binding to a property, e.g. `[property]="expression"`.
	BindingTypeProperty BindingType = iota
	// BindingTypeAttribute is a binding to an attribute, e.g. `[attr.name]="expression"`.
	BindingTypeAttribute
	// BindingTypeClass is a binding to a css class, e.g. `[class.name]="condition"`.
	BindingTypeClass
	// BindingTypeStyle is a binding to a style rule, e.g. `[style.rule]="expression"`.
	BindingTypeStyle
	// BindingTypeAnimation is a binding to an animation reference, e.g. `[@trigger]="state"`.
	BindingTypeAnimation
	// BindingTypeTwoWay is a two-way binding, e.g. `[(property)]="expression"`.
	BindingTypeTwoWay
)

// ParsedEventType is the kind of an event binding.
type ParsedEventType int

const (
	// ParsedEventTypeRegular is a DOM or directive event
	ParsedEventTypeRegular ParsedEventType = iota
	// ParsedEventTypeAnimation is an animation-specific event
	ParsedEventTypeAnimation
	// ParsedEventTypeTwoWay is the event side of a two-way binding
	ParsedEventTypeTwoWay
)
