package imports

import (
	"fmt"
	"path"
	"strings"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler/src/output"
)

// ReferenceEmitStrategy produces an expression referring to a Reference from a given file,
// or nil if it cannot.
type ReferenceEmitStrategy interface {
	Emit(ref *Reference, context *reflection.SourceFile) output.OutputExpression
}

// ReferenceEmitter tries its strategies in order.
type ReferenceEmitter struct {
	strategies []ReferenceEmitStrategy
}

// NewReferenceEmitter creates a new ReferenceEmitter
func NewReferenceEmitter(strategies ...ReferenceEmitStrategy) *ReferenceEmitter {
	return &ReferenceEmitter{strategies: strategies}
}

// Emit returns an expression for ref as seen from context. A reference that no strategy can
// emit is an assertion error.
func (e *ReferenceEmitter) Emit(ref *Reference, context *reflection.SourceFile) output.OutputExpression {
	for _, strategy := range e.strategies {
		if expr := strategy.Emit(ref, context); expr != nil {
			return expr
		}
	}
	panic(fmt.Sprintf("Assertion error: unable to write a reference to %s from %s", ref.DebugName(), context.FileName))
}

// LocalIdentifierStrategy refers to declarations of the same file by their local identifier.
type LocalIdentifierStrategy struct{}

func (LocalIdentifierStrategy) Emit(ref *Reference, context *reflection.SourceFile) output.OutputExpression {
	if id := ref.GetIdentityIn(context); id != "" {
		return output.NewReadVarExpr(id, nil)
	}
	return nil
}

// AliasStrategy uses the alias of a reference when one was attached.
type AliasStrategy struct{}

func (AliasStrategy) Emit(ref *Reference, context *reflection.SourceFile) output.OutputExpression {
	if ext, ok := ref.Alias.(*output.ExternalExpr); ok {
		return ext
	}
	return nil
}

// AbsoluteModuleStrategy imports declarations from external libraries through the module
// specifier they were originally imported from.
type AbsoluteModuleStrategy struct {
	Host reflection.ReflectionHost
}

func (s AbsoluteModuleStrategy) Emit(ref *Reference, context *reflection.SourceFile) output.OutputExpression {
	if !ref.HasOwningModuleGuess() {
		return nil
	}
	name := ref.Node.Name
	if s.Host != nil {
		// Prefer the name under which the declaring file exports the symbol.
		for exportName, decl := range s.Host.GetExportsOfModule(ref.Node.SourceFile) {
			if decl == ref.Node {
				name = exportName
				break
			}
		}
	}
	return output.NewExternalExprOf(ref.BestGuessOwningModule.Specifier, name)
}

// LogicalProjectStrategy imports declarations of the program through a relative path.
type LogicalProjectStrategy struct{}

func (LogicalProjectStrategy) Emit(ref *Reference, context *reflection.SourceFile) output.OutputExpression {
	if ref.Node == nil || ref.Node.SourceFile.IsDeclarationFile {
		return nil
	}
	return output.NewExternalExprOf(relativeModuleSpecifier(context.FileName, ref.Node.SourceFile.FileName), ref.Node.Name)
}

// UnifiedModulesStrategy imports every declaration through its unified module name.
type UnifiedModulesStrategy struct {
	Host UnifiedModulesHost
}

func (s UnifiedModulesStrategy) Emit(ref *Reference, context *reflection.SourceFile) output.OutputExpression {
	if ref.Node == nil {
		return nil
	}
	return output.NewExternalExprOf(s.Host.FileNameToModuleName(ref.Node.SourceFile.FileName, context.FileName), ref.Node.Name)
}

func relativeModuleSpecifier(fromFile, toFile string) string {
	fromParts := splitDir(path.Dir(path.Clean(fromFile)))
	toDir, toBase := path.Split(path.Clean(toFile))
	toParts := splitDir(path.Clean(toDir))

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}
	var segments []string
	for range fromParts[common:] {
		segments = append(segments, "..")
	}
	segments = append(segments, toParts[common:]...)
	segments = append(segments, stripExtension(toBase))

	specifier := strings.Join(segments, "/")
	if !strings.HasPrefix(specifier, "..") {
		specifier = "./" + specifier
	}
	return specifier
}

func splitDir(dir string) []string {
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return strings.Split(strings.Trim(dir, "/"), "/")
}
