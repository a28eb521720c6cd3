package expression_parser

// AstVisitor visits expression nodes.
type AstVisitor interface {
	VisitImplicitReceiver(ast *ImplicitReceiver, context interface{}) interface{}
	VisitThisReceiver(ast *ThisReceiver, context interface{}) interface{}
	VisitChain(ast *Chain, context interface{}) interface{}
	VisitConditional(ast *Conditional, context interface{}) interface{}
	VisitPropertyRead(ast *PropertyRead, context interface{}) interface{}
	VisitSafePropertyRead(ast *SafePropertyRead, context interface{}) interface{}
	VisitPropertyWrite(ast *PropertyWrite, context interface{}) interface{}
	VisitKeyedRead(ast *KeyedRead, context interface{}) interface{}
	VisitPipe(ast *BindingPipe, context interface{}) interface{}
	VisitLiteralPrimitive(ast *LiteralPrimitive, context interface{}) interface{}
	VisitLiteralArray(ast *LiteralArray, context interface{}) interface{}
	VisitLiteralMap(ast *LiteralMap, context interface{}) interface{}
	VisitInterpolation(ast *Interpolation, context interface{}) interface{}
	VisitBinary(ast *Binary, context interface{}) interface{}
	VisitUnary(ast *Unary, context interface{}) interface{}
	VisitPrefixNot(ast *PrefixNot, context interface{}) interface{}
	VisitNonNullAssert(ast *NonNullAssert, context interface{}) interface{}
	VisitCall(ast *Call, context interface{}) interface{}
	VisitSafeCall(ast *SafeCall, context interface{}) interface{}
	VisitASTWithSource(ast *ASTWithSource, context interface{}) interface{}
}

// RecursiveAstVisitor descends into every child of an expression. A visitor embedding it
// sets Outer to itself to receive the children.
type RecursiveAstVisitor struct {
	Outer AstVisitor
}

func (r *RecursiveAstVisitor) outer() AstVisitor {
	if r.Outer == nil {
		return r
	}
	return r.Outer
}

// Visit dispatches a single node. Nil nodes are ignored.
func (r *RecursiveAstVisitor) Visit(ast AST, context interface{}) interface{} {
	if ast == nil {
		return nil
	}
	return ast.Visit(r.outer(), context)
}

// VisitAll visits each node in order.
func (r *RecursiveAstVisitor) VisitAll(asts []AST, context interface{}) interface{} {
	r.children(context, asts...)
	return nil
}

func (r *RecursiveAstVisitor) children(context interface{}, asts ...AST) interface{} {
	for _, ast := range asts {
		r.Visit(ast, context)
	}
	return nil
}

func (*RecursiveAstVisitor) VisitImplicitReceiver(*ImplicitReceiver, interface{}) interface{} { return nil }
func (*RecursiveAstVisitor) VisitThisReceiver(*ThisReceiver, interface{}) interface{}         { return nil }
func (*RecursiveAstVisitor) VisitLiteralPrimitive(*LiteralPrimitive, interface{}) interface{} { return nil }

func (r *RecursiveAstVisitor) VisitChain(ast *Chain, ctx interface{}) interface{} {
	return r.children(ctx, ast.Expressions...)
}

func (r *RecursiveAstVisitor) VisitConditional(ast *Conditional, ctx interface{}) interface{} {
	return r.children(ctx, ast.Condition, ast.TrueExp, ast.FalseExp)
}

func (r *RecursiveAstVisitor) VisitPropertyRead(ast *PropertyRead, ctx interface{}) interface{} {
	return r.children(ctx, ast.Receiver)
}

func (r *RecursiveAstVisitor) VisitSafePropertyRead(ast *SafePropertyRead, ctx interface{}) interface{} {
	return r.children(ctx, ast.Receiver)
}

func (r *RecursiveAstVisitor) VisitPropertyWrite(ast *PropertyWrite, ctx interface{}) interface{} {
	return r.children(ctx, ast.Receiver, ast.Value)
}

func (r *RecursiveAstVisitor) VisitKeyedRead(ast *KeyedRead, ctx interface{}) interface{} {
	return r.children(ctx, ast.Receiver, ast.Key)
}

func (r *RecursiveAstVisitor) VisitPipe(ast *BindingPipe, ctx interface{}) interface{} {
	return r.children(ctx, append([]AST{ast.Exp}, ast.Args...)...)
}

func (r *RecursiveAstVisitor) VisitLiteralArray(ast *LiteralArray, ctx interface{}) interface{} {
	return r.children(ctx, ast.Expressions...)
}

func (r *RecursiveAstVisitor) VisitLiteralMap(ast *LiteralMap, ctx interface{}) interface{} {
	return r.children(ctx, ast.Values...)
}

func (r *RecursiveAstVisitor) VisitInterpolation(ast *Interpolation, ctx interface{}) interface{} {
	return r.children(ctx, ast.Expressions...)
}

func (r *RecursiveAstVisitor) VisitBinary(ast *Binary, ctx interface{}) interface{} {
	return r.children(ctx, ast.Left, ast.Right)
}

func (r *RecursiveAstVisitor) VisitUnary(ast *Unary, ctx interface{}) interface{} {
	return r.children(ctx, ast.Expr)
}

func (r *RecursiveAstVisitor) VisitPrefixNot(ast *PrefixNot, ctx interface{}) interface{} {
	return r.children(ctx, ast.Expression)
}

func (r *RecursiveAstVisitor) VisitNonNullAssert(ast *NonNullAssert, ctx interface{}) interface{} {
	return r.children(ctx, ast.Expression)
}

func (r *RecursiveAstVisitor) VisitCall(ast *Call, ctx interface{}) interface{} {
	return r.children(ctx, append([]AST{ast.Receiver}, ast.Args...)...)
}

func (r *RecursiveAstVisitor) VisitSafeCall(ast *SafeCall, ctx interface{}) interface{} {
	return r.children(ctx, append([]AST{ast.Receiver}, ast.Args...)...)
}

func (r *RecursiveAstVisitor) VisitASTWithSource(ast *ASTWithSource, ctx interface{}) interface{} {
	return r.children(ctx, ast.AST)
}
