package expression_parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders an expression back into a normalized source form. Used for
// diagnostics and for dumping bound targets.
func Serialize(expression AST) string {
	if expression == nil {
		return ""
	}
	return (&serializer{}).str(expression)
}

type serializer struct{}

func (s *serializer) str(ast AST) string {
	if ast == nil {
		return ""
	}
	// EmptyExpr visits to nil
	out, _ := ast.Visit(s, nil).(string)
	return out
}

func (s *serializer) list(asts []AST) string {
	parts := make([]string, len(asts))
	for i, ast := range asts {
		parts[i] = s.str(ast)
	}
	return strings.Join(parts, ", ")
}

func (s *serializer) VisitImplicitReceiver(ast *ImplicitReceiver, context interface{}) interface{} {
	return ""
}

func (s *serializer) VisitThisReceiver(ast *ThisReceiver, context interface{}) interface{} {
	return "this"
}

func (s *serializer) VisitChain(ast *Chain, context interface{}) interface{} {
	parts := make([]string, len(ast.Expressions))
	for i, expr := range ast.Expressions {
		parts[i] = s.str(expr)
	}
	return strings.Join(parts, "; ")
}

func (s *serializer) VisitConditional(ast *Conditional, context interface{}) interface{} {
	return fmt.Sprintf("%s ? %s : %s", s.str(ast.Condition), s.str(ast.TrueExp), s.str(ast.FalseExp))
}

func (s *serializer) receiver(ast AST, name string) string {
	switch ast.(type) {
	case *ImplicitReceiver:
		return name
	default:
		return s.str(ast) + "." + name
	}
}

func (s *serializer) VisitPropertyRead(ast *PropertyRead, context interface{}) interface{} {
	return s.receiver(ast.Receiver, ast.Name)
}

func (s *serializer) VisitSafePropertyRead(ast *SafePropertyRead, context interface{}) interface{} {
	return fmt.Sprintf("%s?.%s", s.str(ast.Receiver), ast.Name)
}

func (s *serializer) VisitPropertyWrite(ast *PropertyWrite, context interface{}) interface{} {
	return fmt.Sprintf("%s = %s", s.receiver(ast.Receiver, ast.Name), s.str(ast.Value))
}

func (s *serializer) VisitKeyedRead(ast *KeyedRead, context interface{}) interface{} {
	return fmt.Sprintf("%s[%s]", s.str(ast.Receiver), s.str(ast.Key))
}

func (s *serializer) VisitPipe(ast *BindingPipe, context interface{}) interface{} {
	out := s.str(ast.Exp) + " | " + ast.Name
	for _, arg := range ast.Args {
		out += ":" + s.str(arg)
	}
	return out
}

func (s *serializer) VisitLiteralPrimitive(ast *LiteralPrimitive, context interface{}) interface{} {
	switch v := ast.Value.(type) {
	case nil:
		return "null"
	case undefinedValue:
		return "undefined"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return "'" + strings.ReplaceAll(v, "'", "\\'") + "'"
	default:
		panic(fmt.Sprintf("Unsupported primitive type: %T", ast.Value))
	}
}

func (s *serializer) VisitLiteralArray(ast *LiteralArray, context interface{}) interface{} {
	return "[" + s.list(ast.Expressions) + "]"
}

func (s *serializer) VisitLiteralMap(ast *LiteralMap, context interface{}) interface{} {
	pairs := make([]string, len(ast.Keys))
	for i, key := range ast.Keys {
		k := key.Key
		if key.Quoted {
			k = "'" + k + "'"
		}
		pairs[i] = k + ": " + s.str(ast.Values[i])
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func (s *serializer) VisitInterpolation(ast *Interpolation, context interface{}) interface{} {
	var b strings.Builder
	for i, str := range ast.Strings {
		b.WriteString(str)
		if i < len(ast.Expressions) {
			b.WriteString("{{ " + s.str(ast.Expressions[i]) + " }}")
		}
	}
	return b.String()
}

func (s *serializer) VisitBinary(ast *Binary, context interface{}) interface{} {
	return fmt.Sprintf("%s %s %s", s.str(ast.Left), ast.Operation, s.str(ast.Right))
}

func (s *serializer) VisitUnary(ast *Unary, context interface{}) interface{} {
	return ast.Operator + s.str(ast.Expr)
}

func (s *serializer) VisitPrefixNot(ast *PrefixNot, context interface{}) interface{} {
	return "!" + s.str(ast.Expression)
}

func (s *serializer) VisitNonNullAssert(ast *NonNullAssert, context interface{}) interface{} {
	return s.str(ast.Expression) + "!"
}

func (s *serializer) VisitCall(ast *Call, context interface{}) interface{} {
	return fmt.Sprintf("%s(%s)", s.str(ast.Receiver), s.list(ast.Args))
}

func (s *serializer) VisitSafeCall(ast *SafeCall, context interface{}) interface{} {
	return fmt.Sprintf("%s?.(%s)", s.str(ast.Receiver), s.list(ast.Args))
}

func (s *serializer) VisitASTWithSource(ast *ASTWithSource, context interface{}) interface{} {
	return s.str(ast.AST)
}
