package output

import (
	"fmt"
	"regexp"
	"strings"
)

var legalIdentifierRe = regexp.MustCompile(`^[\p{L}$_][\p{L}\p{N}_$]*$`)

// EmitterVisitorContext collects the parts of the emitted source
type EmitterVisitorContext struct {
	parts []string
}

// NewEmitterVisitorContext creates a new EmitterVisitorContext
func NewEmitterVisitorContext() *EmitterVisitorContext {
	return &EmitterVisitorContext{}
}

// Print appends a part to the output
func (ctx *EmitterVisitorContext) Print(part string) {
	if part != "" {
		ctx.parts = append(ctx.parts, part)
	}
}

// ToSource returns the emitted source
func (ctx *EmitterVisitorContext) ToSource() string {
	return strings.Join(ctx.parts, "")
}

// NodeNamer names wrapped host nodes when printing. Nodes without a name print as
// `<node>`.
type NodeNamer interface {
	DebugName() string
}

// Print renders an output expression for diagnostics: imported symbols print as
// `moduleName#name`, local ones by name.
func Print(expr OutputExpression) string {
	if expr == nil {
		return ""
	}
	ctx := NewEmitterVisitorContext()
	expr.VisitExpression(&emitterVisitor{}, ctx)
	return ctx.ToSource()
}

type emitterVisitor struct{}

func (v *emitterVisitor) getContext(context interface{}) *EmitterVisitorContext {
	ctx, ok := context.(*EmitterVisitorContext)
	if !ok {
		panic(fmt.Sprintf("Assertion error: expected an EmitterVisitorContext, got %T", context))
	}
	return ctx
}

func (v *emitterVisitor) VisitReadVarExpr(ast *ReadVarExpr, context interface{}) interface{} {
	v.getContext(context).Print(ast.Name)
	return nil
}

func (v *emitterVisitor) VisitExternalExpr(ast *ExternalExpr, context interface{}) interface{} {
	ctx := v.getContext(context)
	if ast.Value.ModuleName != nil {
		ctx.Print(*ast.Value.ModuleName)
		ctx.Print("#")
	}
	if ast.Value.Name != nil {
		name := *ast.Value.Name
		if !legalIdentifierRe.MatchString(name) {
			name = fmt.Sprintf("[%q]", name)
		}
		ctx.Print(name)
	}
	return nil
}

func (v *emitterVisitor) VisitWrappedNodeExpr(ast *WrappedNodeExpr, context interface{}) interface{} {
	ctx := v.getContext(context)
	if namer, ok := ast.Node.(NodeNamer); ok {
		ctx.Print(namer.DebugName())
	} else {
		ctx.Print("<node>")
	}
	return nil
}
