package expression_parser

import (
	"fmt"
	"strings"

	"ngtsc-go/packages/compiler/src/util"
)

const (
	interpolationStart = "{{"
	interpolationEnd   = "}}"
)

// EOF is returned by the parser when it reads past the last token.
var EOF = &Token{Index: -1, End: -1, Type: TokenTypeCharacter}

// Parser parses binding, action and interpolation expressions.
type Parser struct {
	lexer *Lexer
}

// NewParser creates a new Parser
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// ParseAction parses an event handler expression. Assignments and `;` chains are allowed,
// pipes are not.
func (p *Parser) ParseAction(input, location string, absoluteOffset int) *ASTWithSource {
	var errors []*util.ParseError
	ast := p.newParseAST(input, location, absoluteOffset, 0, true, &errors).parseChain()
	return NewASTWithSource(ast, input, location, absoluteOffset, errors)
}

// ParseBinding parses a property binding expression.
func (p *Parser) ParseBinding(input, location string, absoluteOffset int) *ASTWithSource {
	var errors []*util.ParseError
	ast := p.newParseAST(input, location, absoluteOffset, 0, false, &errors).parseChain()
	return NewASTWithSource(ast, input, location, absoluteOffset, errors)
}

// ParseInterpolation parses text containing `{{ }}` interpolations. It returns nil when the
// text contains no interpolation.
func (p *Parser) ParseInterpolation(input, location string, absoluteOffset int) *ASTWithSource {
	var errors []*util.ParseError
	strs, exprs, offsets := p.splitInterpolation(input, location, &errors)
	if len(exprs) == 0 {
		return nil
	}

	asts := make([]AST, len(exprs))
	for i, text := range exprs {
		if strings.TrimSpace(text) == "" {
			errors = append(errors, parseError("Blank expressions are not allowed in interpolated strings", input,
				fmt.Sprintf("at column %d in", offsets[i]), location))
			asts[i] = NewEmptyExpr(NewParseSpan(offsets[i], offsets[i]), NewAbsoluteSourceSpan(absoluteOffset+offsets[i], absoluteOffset+offsets[i]))
			continue
		}
		asts[i] = p.newParseAST(text, location, absoluteOffset, offsets[i], false, &errors).parseChain()
	}
	span := NewParseSpan(0, len(input))
	ast := NewInterpolation(span, span.ToAbsolute(absoluteOffset), strs, asts)
	return NewASTWithSource(ast, input, location, absoluteOffset, errors)
}

func (p *Parser) splitInterpolation(input, location string, errors *[]*util.ParseError) (strs, exprs []string, offsets []int) {
	pos := 0
	for pos < len(input) {
		start := strings.Index(input[pos:], interpolationStart)
		if start < 0 {
			break
		}
		start += pos
		exprStart := start + len(interpolationStart)
		end := strings.Index(input[exprStart:], interpolationEnd)
		if end < 0 {
			*errors = append(*errors, parseError("Unterminated interpolation", input,
				fmt.Sprintf("at column %d in", start), location))
			break
		}
		end += exprStart
		strs = append(strs, input[pos:start])
		exprs = append(exprs, input[exprStart:end])
		offsets = append(offsets, exprStart)
		pos = end + len(interpolationEnd)
	}
	strs = append(strs, input[pos:])
	return strs, exprs, offsets
}

// TemplateBindingIdentifier is a key or value name in a microsyntax expression.
type TemplateBindingIdentifier struct {
	Source string
	Span   *AbsoluteSourceSpan
}

// TemplateBinding is either a *VariableBinding or an *ExpressionBinding.
type TemplateBinding interface {
	templateBinding()
}

// VariableBinding declares a template variable: `let item`, `let i = index`, `index as i`.
// A nil Value means `$implicit`.
type VariableBinding struct {
	SourceSpan *AbsoluteSourceSpan
	Key        *TemplateBindingIdentifier
	Value      *TemplateBindingIdentifier
}

func (*VariableBinding) templateBinding() {}

// ExpressionBinding binds an expression to a directive input: `of items` becomes
// `ngForOf` bound to `items`. Value is nil for a bare key.
type ExpressionBinding struct {
	SourceSpan *AbsoluteSourceSpan
	Key        *TemplateBindingIdentifier
	Value      *ASTWithSource
}

func (*ExpressionBinding) templateBinding() {}

// TemplateBindingParseResult is the result of ParseTemplateBindings.
type TemplateBindingParseResult struct {
	Bindings []TemplateBinding
	Errors   []*util.ParseError
}

// ParseTemplateBindings parses the value of a `*key="value"` attribute.
func (p *Parser) ParseTemplateBindings(templateKey, templateValue, location string, absoluteKeyOffset, absoluteValueOffset int) *TemplateBindingParseResult {
	var errors []*util.ParseError
	parser := p.newParseAST(templateValue, location, absoluteValueOffset, 0, false, &errors)
	key := &TemplateBindingIdentifier{
		Source: templateKey,
		Span:   NewAbsoluteSourceSpan(absoluteKeyOffset, absoluteKeyOffset+len(templateKey)),
	}
	bindings := parser.parseTemplateBindings(key)
	return &TemplateBindingParseResult{Bindings: bindings, Errors: errors}
}

func (p *Parser) newParseAST(input, location string, absoluteOffset, offset int, action bool, errors *[]*util.ParseError) *parseAST {
	return &parseAST{
		input:          input,
		location:       location,
		absoluteOffset: absoluteOffset,
		offset:         offset,
		tokens:         p.lexer.Tokenize(input),
		action:         action,
		errors:         errors,
	}
}

type parseAST struct {
	input          string
	location       string
	absoluteOffset int
	// offset of input inside the enclosing source, non-zero for interpolation parts
	offset int
	tokens []*Token
	index  int
	action bool
	errors *[]*util.ParseError
}

func (p *parseAST) next() *Token {
	return p.peek(0)
}

func (p *parseAST) peek(n int) *Token {
	i := p.index + n
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return EOF
}

func (p *parseAST) advance() {
	p.index++
}

func (p *parseAST) atEOF() bool {
	return p.index >= len(p.tokens)
}

func (p *parseAST) inputIndex() int {
	if p.atEOF() {
		return p.currentEndIndex()
	}
	return p.next().Index + p.offset
}

func (p *parseAST) currentEndIndex() int {
	if p.index > 0 {
		return p.tokens[p.index-1].End + p.offset
	}
	return p.offset
}

func (p *parseAST) currentAbsoluteOffset() int {
	return p.absoluteOffset + p.inputIndex()
}

func (p *parseAST) span(start int) *ParseSpan {
	end := p.currentEndIndex()
	if start > end {
		start, end = end, start
	}
	return NewParseSpan(start, end)
}

func (p *parseAST) sourceSpan(start int) *AbsoluteSourceSpan {
	return p.span(start).ToAbsolute(p.absoluteOffset)
}

func (p *parseAST) consumeOptionalCharacter(ch byte) bool {
	if p.next().IsCharacter(ch) {
		p.advance()
		return true
	}
	return false
}

func (p *parseAST) consumeOptionalOperator(op string) bool {
	if p.next().IsOperator(op) {
		p.advance()
		return true
	}
	return false
}

func (p *parseAST) expectCharacter(ch byte) {
	if !p.consumeOptionalCharacter(ch) {
		p.error(fmt.Sprintf("Missing expected %c", ch))
	}
}

func (p *parseAST) expectIdentifierOrKeyword() (string, bool) {
	n := p.next()
	if !n.IsIdentifier() && n.Type != TokenTypeKeyword {
		p.error(fmt.Sprintf("Unexpected %s, expected identifier or keyword", p.prettyPrintToken(n)))
		return "", false
	}
	p.advance()
	return n.StrValue, true
}

func (p *parseAST) prettyPrintToken(tok *Token) string {
	if tok == EOF {
		return "end of input"
	}
	return "token " + tok.String()
}

func (p *parseAST) parseChain() AST {
	var exprs []AST
	start := p.inputIndex()
	for !p.atEOF() {
		exprs = append(exprs, p.parsePipe())

		if p.consumeOptionalCharacter(';') {
			if !p.action {
				p.error("Binding expression cannot contain chained expression")
			}
			for p.consumeOptionalCharacter(';') {
			}
		} else if !p.atEOF() {
			errorIndex := p.index
			p.error(fmt.Sprintf("Unexpected token '%s'", p.next()))
			if p.index == errorIndex {
				break
			}
		}
	}
	switch len(exprs) {
	case 0:
		span := NewParseSpan(p.offset, p.offset+len(p.input))
		return NewEmptyExpr(span, span.ToAbsolute(p.absoluteOffset))
	case 1:
		return exprs[0]
	default:
		return NewChain(p.span(start), p.sourceSpan(start), exprs)
	}
}

func (p *parseAST) parsePipe() AST {
	start := p.inputIndex()
	result := p.parseExpression()
	for p.consumeOptionalOperator("|") {
		if p.action {
			p.error("Cannot have a pipe in an action expression")
		}
		nameStart := p.inputIndex()
		name, _ := p.expectIdentifierOrKeyword()
		nameSpan := p.sourceSpan(nameStart)
		var args []AST
		for p.consumeOptionalCharacter(':') {
			args = append(args, p.parseExpression())
		}
		result = NewBindingPipe(p.span(start), p.sourceSpan(start), result, name, args, nameSpan)
	}
	return result
}

func (p *parseAST) parseExpression() AST {
	return p.parseConditional()
}

func (p *parseAST) parseConditional() AST {
	start := p.inputIndex()
	result := p.parseLogicalOr()
	if !p.consumeOptionalOperator("?") {
		return result
	}
	yes := p.parsePipe()
	var no AST
	if !p.consumeOptionalCharacter(':') {
		p.error(fmt.Sprintf("Conditional expression %s requires all 3 expressions",
			p.input[start-p.offset:p.inputIndex()-p.offset]))
		no = NewEmptyExpr(p.span(start), p.sourceSpan(start))
	} else {
		no = p.parsePipe()
	}
	return NewConditional(p.span(start), p.sourceSpan(start), result, yes, no)
}

// parseBinaryLevel parses a left-associative chain of the given operators.
func (p *parseAST) parseBinaryLevel(operand func() AST, operators ...string) AST {
	start := p.inputIndex()
	result := operand()
	for {
		tok := p.next()
		if tok.Type != TokenTypeOperator || !contains(operators, tok.StrValue) {
			return result
		}
		p.advance()
		right := operand()
		result = NewBinary(p.span(start), p.sourceSpan(start), tok.StrValue, result, right)
	}
}

func (p *parseAST) parseLogicalOr() AST {
	return p.parseBinaryLevel(p.parseLogicalAnd, "||")
}

func (p *parseAST) parseLogicalAnd() AST {
	return p.parseBinaryLevel(p.parseNullishCoalescing, "&&")
}

func (p *parseAST) parseNullishCoalescing() AST {
	return p.parseBinaryLevel(p.parseEquality, "??")
}

func (p *parseAST) parseEquality() AST {
	return p.parseBinaryLevel(p.parseRelational, "==", "===", "!=", "!==")
}

func (p *parseAST) parseRelational() AST {
	return p.parseBinaryLevel(p.parseAdditive, "<", ">", "<=", ">=")
}

func (p *parseAST) parseAdditive() AST {
	return p.parseBinaryLevel(p.parseMultiplicative, "+", "-")
}

func (p *parseAST) parseMultiplicative() AST {
	return p.parseBinaryLevel(p.parsePrefix, "*", "%", "/")
}

func (p *parseAST) parsePrefix() AST {
	tok := p.next()
	if tok.Type == TokenTypeOperator {
		start := p.inputIndex()
		switch tok.StrValue {
		case "+", "-":
			p.advance()
			result := p.parsePrefix()
			return NewUnary(p.span(start), p.sourceSpan(start), tok.StrValue, result)
		case "!":
			p.advance()
			result := p.parsePrefix()
			return NewPrefixNot(p.span(start), p.sourceSpan(start), result)
		}
	}
	return p.parseCallChain()
}

func (p *parseAST) parseCallChain() AST {
	start := p.inputIndex()
	result := p.parsePrimary()
	for {
		switch {
		case p.consumeOptionalCharacter('.'):
			result = p.parseAccessMember(result, start, false)
		case p.consumeOptionalOperator("?."):
			if p.consumeOptionalCharacter('(') {
				args := p.parseCallArguments()
				p.expectCharacter(')')
				result = NewSafeCall(p.span(start), p.sourceSpan(start), result, args)
			} else {
				result = p.parseAccessMember(result, start, true)
			}
		case p.consumeOptionalCharacter('['):
			key := p.parsePipe()
			p.expectCharacter(']')
			result = NewKeyedRead(p.span(start), p.sourceSpan(start), result, key)
		case p.consumeOptionalCharacter('('):
			args := p.parseCallArguments()
			p.expectCharacter(')')
			result = NewCall(p.span(start), p.sourceSpan(start), result, args)
		case p.consumeOptionalOperator("!"):
			result = NewNonNullAssert(p.span(start), p.sourceSpan(start), result)
		default:
			return result
		}
	}
}

func (p *parseAST) parseCallArguments() []AST {
	if p.next().IsCharacter(')') {
		return nil
	}
	var args []AST
	for {
		args = append(args, p.parsePipe())
		if !p.consumeOptionalCharacter(',') {
			return args
		}
	}
}

func (p *parseAST) parsePrimary() AST {
	start := p.inputIndex()
	tok := p.next()
	switch {
	case tok.IsCharacter('('):
		p.advance()
		result := p.parsePipe()
		p.expectCharacter(')')
		return result
	case tok.IsKeyword("null"):
		p.advance()
		return NewLiteralPrimitive(p.span(start), p.sourceSpan(start), nil)
	case tok.IsKeyword("undefined"):
		p.advance()
		return NewLiteralPrimitive(p.span(start), p.sourceSpan(start), Undefined)
	case tok.IsKeyword("true"), tok.IsKeyword("false"):
		p.advance()
		return NewLiteralPrimitive(p.span(start), p.sourceSpan(start), tok.StrValue == "true")
	case tok.IsKeyword("this"):
		p.advance()
		return NewThisReceiver(p.span(start), p.sourceSpan(start))
	case tok.IsCharacter('['):
		p.advance()
		var elements []AST
		if !p.next().IsCharacter(']') {
			for {
				elements = append(elements, p.parsePipe())
				if !p.consumeOptionalCharacter(',') {
					break
				}
			}
		}
		p.expectCharacter(']')
		return NewLiteralArray(p.span(start), p.sourceSpan(start), elements)
	case tok.IsCharacter('{'):
		return p.parseLiteralMap()
	case tok.IsIdentifier():
		receiverSpan := NewParseSpan(start, start)
		receiver := NewImplicitReceiver(receiverSpan, receiverSpan.ToAbsolute(p.absoluteOffset))
		return p.parseAccessMember(receiver, start, false)
	case tok.Type == TokenTypeNumber:
		p.advance()
		return NewLiteralPrimitive(p.span(start), p.sourceSpan(start), tok.NumValue)
	case tok.Type == TokenTypeString:
		p.advance()
		return NewLiteralPrimitive(p.span(start), p.sourceSpan(start), tok.StrValue)
	case tok.Type == TokenTypeError:
		p.addError(tok.StrValue, p.index)
		p.advance()
		return NewEmptyExpr(p.span(start), p.sourceSpan(start))
	case p.atEOF():
		p.error("Unexpected end of expression: " + p.input)
		return NewEmptyExpr(p.span(start), p.sourceSpan(start))
	default:
		p.error(fmt.Sprintf("Unexpected token %s", tok))
		return NewEmptyExpr(p.span(start), p.sourceSpan(start))
	}
}

func (p *parseAST) parseLiteralMap() AST {
	start := p.inputIndex()
	p.expectCharacter('{')
	var keys []LiteralMapKey
	var values []AST
	if !p.consumeOptionalCharacter('}') {
		for {
			keyStart := p.inputIndex()
			tok := p.next()
			quoted := tok.Type == TokenTypeString
			if !quoted && !tok.IsIdentifier() && tok.Type != TokenTypeKeyword {
				p.error(fmt.Sprintf("Unexpected %s, expected identifier, keyword, or string", p.prettyPrintToken(tok)))
				break
			}
			p.advance()
			keys = append(keys, LiteralMapKey{Key: tok.StrValue, Quoted: quoted})
			if quoted || p.next().IsCharacter(':') {
				p.expectCharacter(':')
				values = append(values, p.parsePipe())
			} else {
				// `{a}` is shorthand for `{a: a}`
				receiverSpan := NewParseSpan(keyStart, keyStart)
				receiver := NewImplicitReceiver(receiverSpan, receiverSpan.ToAbsolute(p.absoluteOffset))
				values = append(values, NewPropertyRead(p.span(keyStart), p.sourceSpan(keyStart), p.sourceSpan(keyStart), receiver, tok.StrValue))
			}
			if !p.consumeOptionalCharacter(',') {
				break
			}
		}
		p.expectCharacter('}')
	}
	return NewLiteralMap(p.span(start), p.sourceSpan(start), keys, values)
}

func (p *parseAST) parseAccessMember(receiver AST, start int, isSafe bool) AST {
	nameStart := p.inputIndex()
	name, ok := p.expectIdentifierOrKeyword()
	nameSpan := p.sourceSpan(nameStart)
	if !ok {
		return NewEmptyExpr(p.span(start), p.sourceSpan(start))
	}

	if isSafe {
		if p.next().IsOperator("=") {
			p.error("The '?.' operator cannot be used in the assignment")
			return NewEmptyExpr(p.span(start), p.sourceSpan(start))
		}
		return NewSafePropertyRead(p.span(start), p.sourceSpan(start), nameSpan, receiver, name)
	}

	if p.next().IsOperator("=") {
		if !p.action {
			p.error("Bindings cannot contain assignments")
			return NewEmptyExpr(p.span(start), p.sourceSpan(start))
		}
		p.advance()
		value := p.parseConditional()
		return NewPropertyWrite(p.span(start), p.sourceSpan(start), nameSpan, receiver, name, value)
	}
	return NewPropertyRead(p.span(start), p.sourceSpan(start), nameSpan, receiver, name)
}

func (p *parseAST) parseTemplateBindings(templateKey *TemplateBindingIdentifier) []TemplateBinding {
	bindings := p.parseDirectiveKeywordBindings(templateKey)

	for !p.atEOF() {
		if letBinding := p.parseLetBinding(); letBinding != nil {
			bindings = append(bindings, letBinding)
		} else {
			key := p.expectTemplateBindingKey()
			if key == nil {
				break
			}
			if asBinding := p.parseAsBinding(key); asBinding != nil {
				bindings = append(bindings, asBinding)
			} else {
				// `of` under `ngFor` becomes `ngForOf`
				key.Source = templateKey.Source + strings.ToUpper(key.Source[:1]) + key.Source[1:]
				bindings = append(bindings, p.parseDirectiveKeywordBindings(key)...)
			}
		}
		p.consumeStatementTerminator()
	}
	return bindings
}

func (p *parseAST) parseDirectiveKeywordBindings(key *TemplateBindingIdentifier) []TemplateBinding {
	p.consumeOptionalCharacter(':')
	value := p.getDirectiveBoundTarget()
	spanEnd := p.currentAbsoluteOffset()
	asBinding := p.parseAsBinding(key)
	if asBinding == nil {
		p.consumeStatementTerminator()
		spanEnd = p.currentAbsoluteOffset()
	}
	bindings := []TemplateBinding{&ExpressionBinding{
		SourceSpan: NewAbsoluteSourceSpan(key.Span.Start, spanEnd),
		Key:        key,
		Value:      value,
	}}
	if asBinding != nil {
		bindings = append(bindings, asBinding)
	}
	return bindings
}

func (p *parseAST) getDirectiveBoundTarget() *ASTWithSource {
	if p.atEOF() || p.next().IsKeyword("as") || p.next().IsKeyword("let") {
		return nil
	}
	ast := p.parsePipe()
	span := ast.Span()
	source := p.input[span.Start-p.offset : span.End-p.offset]
	return NewASTWithSource(ast, source, p.location, p.absoluteOffset+span.Start, nil)
}

func (p *parseAST) parseAsBinding(value *TemplateBindingIdentifier) TemplateBinding {
	if !p.next().IsKeyword("as") {
		return nil
	}
	p.advance()
	key := p.expectTemplateBindingKey()
	if key == nil {
		return nil
	}
	p.consumeStatementTerminator()
	return &VariableBinding{
		SourceSpan: NewAbsoluteSourceSpan(value.Span.Start, p.currentAbsoluteOffset()),
		Key:        key,
		Value:      value,
	}
}

func (p *parseAST) parseLetBinding() TemplateBinding {
	if !p.next().IsKeyword("let") {
		return nil
	}
	spanStart := p.currentAbsoluteOffset()
	p.advance()
	key := p.expectTemplateBindingKey()
	if key == nil {
		return nil
	}
	var value *TemplateBindingIdentifier
	if p.consumeOptionalOperator("=") {
		value = p.expectTemplateBindingKey()
	}
	p.consumeStatementTerminator()
	return &VariableBinding{
		SourceSpan: NewAbsoluteSourceSpan(spanStart, p.currentAbsoluteOffset()),
		Key:        key,
		Value:      value,
	}
}

func (p *parseAST) expectTemplateBindingKey() *TemplateBindingIdentifier {
	start := p.currentAbsoluteOffset()
	name, ok := p.expectIdentifierOrKeyword()
	if !ok {
		return nil
	}
	return &TemplateBindingIdentifier{Source: name, Span: NewAbsoluteSourceSpan(start, start+len(name))}
}

func (p *parseAST) consumeStatementTerminator() {
	if !p.consumeOptionalCharacter(';') {
		p.consumeOptionalCharacter(',')
	}
}

func (p *parseAST) error(message string) {
	p.addError(message, p.index)
	p.skip()
}

func (p *parseAST) addError(message string, index int) {
	*p.errors = append(*p.errors, parseError(message, p.input, p.errorLocationText(index), p.location))
}

func (p *parseAST) errorLocationText(index int) string {
	if index < len(p.tokens) {
		return fmt.Sprintf("at column %d in", p.tokens[index].Index+p.offset+1)
	}
	return "at the end of the expression"
}

// skip drops tokens up to the next `;` so that parsing can resume after an error.
func (p *parseAST) skip() {
	for !p.atEOF() && !p.next().IsCharacter(';') {
		p.advance()
	}
}

func parseError(message, input, errLocation, location string) *util.ParseError {
	if location != "" {
		location = " in " + location
	}
	return util.NewParseError(nil, fmt.Sprintf("Parser Error: %s %s [%s]%s", message, errLocation, input, location))
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
