package scope

import (
	"fmt"
	"sort"
	"strings"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
)

// DeclarationData records that an NgModule declares a class.
type DeclarationData struct {
	NgModule        *reflection.Declaration
	Ref             *imports.Reference
	RawDeclarations string
}

func fileOf(decl *reflection.Declaration) string {
	if decl == nil || decl.SourceFile == nil {
		return ""
	}
	return decl.SourceFile.FileName
}

func listKind(isImport bool) string {
	if isImport {
		return "import"
	}
	return "export"
}

func invalidRefCode(isImport bool) diagnostics.ErrorCode {
	if isImport {
		return diagnostics.NgModuleInvalidImport
	}
	return diagnostics.NgModuleInvalidExport
}

func invalidRef(ngModule *reflection.Declaration, decl *imports.Reference, rawExpr string, isImport bool) *diagnostics.Diagnostic {
	kind := listKind(isImport)
	message := fmt.Sprintf("'%s' does not appear to be an NgModule, Component, Directive, or Pipe class.", decl.DebugName())
	if decl.Node.SourceFile.IsDeclarationFile {
		message += "\n\nThe class is declared in a library, and may be missing Angular metadata."
	} else {
		message += fmt.Sprintf("\n\nIs it missing an Angular annotation? (in the NgModule.%ss of '%s')", kind, ngModule.Name)
	}
	return diagnostics.MakeDiagnostic(invalidRefCode(isImport), fileOf(ngModule), originOf(decl, rawExpr), message)
}

func invalidTransitiveNgModuleRef(ngModule *reflection.Declaration, decl *imports.Reference, rawExpr string, isImport bool) *diagnostics.Diagnostic {
	return diagnostics.MakeDiagnostic(invalidRefCode(isImport), fileOf(ngModule), originOf(decl, rawExpr),
		fmt.Sprintf("This %s contains errors, which may affect components that depend on this NgModule.", listKind(isImport)))
}

func invalidReexport(ngModule *reflection.Declaration, decl *imports.Reference, rawExpr string, isStandalone bool) *diagnostics.Diagnostic {
	message := "Can't be exported from this NgModule, as "
	if isStandalone {
		message += "it must be imported first"
	} else if decl.Node.SourceFile.IsDeclarationFile {
		message += "it must be imported via its NgModule first"
	} else {
		message += "it must be either declared by this NgModule, or imported here via its NgModule first"
	}
	return diagnostics.MakeDiagnostic(diagnostics.NgModuleInvalidReexport, fileOf(ngModule), originOf(decl, rawExpr), message)
}

func reexportCollision(ngModule *reflection.Declaration, refA, refB *imports.Reference) *diagnostics.Diagnostic {
	childMessageText := fmt.Sprintf("This directive/pipe is part of the exports of '%s' and shares the same name as another exported directive/pipe.", ngModule.Name)
	return diagnostics.MakeDiagnostic(diagnostics.NgModuleReexportNameCollision, fileOf(ngModule), ngModule.Name,
		strings.Join([]string{
			fmt.Sprintf("There was a name collision between two classes named '%s', which are both part of the exports of '%s'.", refA.Node.Name, ngModule.Name),
			"",
			"Angular generates re-exports of an NgModule's exported directives/pipes from the module's source file in certain cases, using the declared name of the class. If two classes of the same name are exported, this automatic naming does not work.",
			"",
			"To fix this problem please re-export one or both classes directly from this file.",
		}, "\n"),
		diagnostics.MakeRelatedInformation(fileOf(refA.Node), refA.Node.Name, childMessageText),
		diagnostics.MakeRelatedInformation(fileOf(refB.Node), refB.Node.Name, childMessageText),
	)
}

func declarationIsStandalone(ngModule *reflection.Declaration, decl *imports.Reference, rawExpr, refType string) *diagnostics.Diagnostic {
	return diagnostics.MakeDiagnostic(diagnostics.NgModuleDeclarationIsStandalone, fileOf(ngModule), originOf(decl, rawExpr),
		fmt.Sprintf("%s %s is standalone, and cannot be declared in an NgModule. Did you mean to import it instead?", refType, decl.DebugName()))
}

func invalidDeclaration(ngModule *reflection.Declaration, decl *imports.Reference, rawExpr string) *diagnostics.Diagnostic {
	return diagnostics.MakeDiagnostic(diagnostics.NgModuleInvalidDeclaration, fileOf(ngModule), originOf(decl, rawExpr),
		fmt.Sprintf("The class '%s' is listed in the declarations of the NgModule '%s', but is not a directive, a component, or a pipe. Either remove it from the NgModule's declarations, or add an appropriate Angular decorator.", decl.DebugName(), ngModule.Name),
		diagnostics.MakeRelatedInformation(fileOf(decl.Node), decl.DebugName(), fmt.Sprintf("'%s' is declared here.", decl.DebugName())))
}

// MakeNotStandaloneDiagnostic reports an import of a non-standalone class into a standalone
// component or an NgModule. kind is "component", "directive" or "pipe".
func MakeNotStandaloneDiagnostic(scopeReader ComponentScopeReader, ref *imports.Reference, importOwner *reflection.Declaration, rawImports, kind string) *diagnostics.Diagnostic {
	var related []diagnostics.RelatedInformation
	message := fmt.Sprintf("The %s '%s' appears in 'imports', but is not standalone and cannot be imported directly.", kind, ref.DebugName())
	if s, ok := scopeReader.GetScopeForComponent(ref.Node).(*LocalModuleScope); ok {
		message += fmt.Sprintf(" It must be imported via an NgModule.\n\nThe %s is declared in the NgModule '%s'.", kind, s.NgModule.Name)
		related = append(related, diagnostics.MakeRelatedInformation(fileOf(s.NgModule), s.NgModule.Name,
			fmt.Sprintf("'%s' is declared in this NgModule.", ref.DebugName())))
	} else {
		message += " It must be imported via an NgModule, but no NgModule declares it."
	}
	return diagnostics.MakeDiagnostic(diagnostics.ComponentImportNotStandalone, fileOf(importOwner), originOf(ref, rawImports), message, related...)
}

// MakeUnknownComponentImportDiagnostic reports an import of a standalone component that is
// neither a standalone declaration nor an NgModule.
func MakeUnknownComponentImportDiagnostic(ref *imports.Reference, component *reflection.Declaration, rawImports string) *diagnostics.Diagnostic {
	return diagnostics.MakeDiagnostic(diagnostics.ComponentUnknownImport, fileOf(component), originOf(ref, rawImports),
		fmt.Sprintf("Component imports must be standalone components, directives, pipes, or must be NgModules. '%s' is none of these.", ref.DebugName()))
}

// MakeDuplicateDeclarationError reports a class declared by more than one NgModule. kind is
// "Component", "Directive" or "Pipe".
func MakeDuplicateDeclarationError(node *reflection.Declaration, data []DeclarationData, kind string) *diagnostics.Diagnostic {
	var related []diagnostics.RelatedInformation
	for _, decl := range data {
		related = append(related, diagnostics.MakeRelatedInformation(fileOf(decl.NgModule), decl.NgModule.Name,
			fmt.Sprintf("'%s' is listed in the declarations of '%s'.", node.Name, decl.NgModule.Name)))
	}
	return diagnostics.MakeDiagnostic(diagnostics.NgModuleDeclarationNotUnique, fileOf(node), node.Name,
		fmt.Sprintf("The %s '%s' is declared by more than one NgModule.", kind, node.Name), related...)
}

// originOf names the expression a diagnostic about decl points at: the class when it is
// written in the raw list it was found in, otherwise the whole list.
func originOf(decl *imports.Reference, rawExpr string) string {
	if rawExpr == "" || strings.Contains(rawExpr, decl.DebugName()) {
		return decl.DebugName()
	}
	return rawExpr
}

// declarationKind names the kind of a declared class for diagnostics
func declarationKind(directive *metadata.DirectiveMeta) string {
	if directive.IsComponent() {
		return "Component"
	}
	return "Directive"
}

// sortReferences orders references by file and then by name
func sortReferences(refs []*imports.Reference) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i].Node, refs[j].Node
		if fileOf(a) != fileOf(b) {
			return fileOf(a) < fileOf(b)
		}
		return a.Name < b.Name
	})
}
