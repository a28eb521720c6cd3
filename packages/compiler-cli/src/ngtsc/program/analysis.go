package program

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/incremental"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
	"ngtsc-go/packages/compiler/src/render3/view"
)

// ComponentAnalysis is the result of binding a component template against its scope.
type ComponentAnalysis struct {
	Component *reflection.Declaration
	// Scope is nil for components no NgModule declares and that are not standalone.
	Scope          scope.ComponentScope
	TypeCheckScope *scope.TypeCheckScope
	Bound          view.BoundTarget
	// UsedDirectives are the directives matched in the template, in order of first use.
	UsedDirectives []*metadata.DirectiveMeta
	// UsedPipes are the pipes used in the template and found in scope, in order of first use.
	UsedPipes []*metadata.PipeMeta
	// UnknownPipes are the names of pipes used in the template but not in scope.
	UnknownPipes []string
	IsPoisoned   bool
	// RemoteScope is set when the used directives and pipes are registered from the
	// NgModule's file because importing them from the component file would be cyclic.
	RemoteScope    bool
	TemplateErrors []string
	Diagnostics    []*diagnostics.Diagnostic
}

// Components returns the components of the program, in manifest order.
func (c *Compilation) Components() []*reflection.Declaration {
	result := make([]*reflection.Declaration, 0, len(c.components))
	for _, component := range c.components {
		result = append(result, component.decl)
	}
	return result
}

// LookupComponent finds a component by `<file>#<name>` or by name alone when the name is
// unique.
func (c *Compilation) LookupComponent(name string) (*reflection.Declaration, error) {
	var found *componentSource
	for _, component := range c.components {
		if component.decl.String() == name {
			return component.decl, nil
		}
		if component.decl.Name == name {
			if found != nil {
				return nil, errors.Errorf("ambiguous component %s, use <file>#%s", name, name)
			}
			found = component
		}
	}
	if found == nil {
		return nil, errors.Errorf("unknown component %s", name)
	}
	return found.decl, nil
}

// Lookup resolves a `<file>#<name>` symbol of the program.
func (c *Compilation) Lookup(symbol string) (*reflection.Declaration, error) {
	ref, err := c.ref(symbol)
	if err != nil {
		return nil, err
	}
	return ref.Node, nil
}

// ScopeOf returns the scope a component's template is compiled in, or nil.
func (c *Compilation) ScopeOf(component *reflection.Declaration) scope.ComponentScope {
	return c.scopeReader.GetScopeForComponent(component)
}

// TypeCheckScopeOf returns the type-check scope of a component.
func (c *Compilation) TypeCheckScopeOf(component *reflection.Declaration) *scope.TypeCheckScope {
	return c.typeCheck.GetTypeCheckScope(component)
}

// ScopeOfModule returns the scope of an NgModule of the program, or nil.
func (c *Compilation) ScopeOfModule(ngModule *reflection.Declaration) *scope.LocalModuleScope {
	return c.localScopes.GetScopeOfModule(ngModule)
}

// Diagnostics returns the scope errors of the program: NgModule errors, duplicate
// declarations and invalid standalone imports.
func (c *Compilation) Diagnostics() []*diagnostics.Diagnostic {
	if c.diagnostics != nil {
		return c.diagnostics
	}
	diags := []*diagnostics.Diagnostic{}
	for _, ngModule := range c.ngModules {
		diags = append(diags, c.localScopes.GetDiagnosticsOfModule(ngModule.Ref.Node)...)
	}

	reported := make(map[*reflection.Declaration]bool)
	for _, decl := range c.declarations {
		duplicates := c.localScopes.GetDuplicateDeclarations(decl)
		if duplicates == nil || reported[decl] {
			continue
		}
		reported[decl] = true
		diags = append(diags, scope.MakeDuplicateDeclarationError(decl, duplicates, c.kindOf(decl)))
	}

	for _, component := range c.components {
		if !component.meta.IsStandalone() {
			continue
		}
		diags = append(diags, c.standaloneImportDiagnostics(component)...)
	}

	c.diagnostics = diags
	return diags
}

func (c *Compilation) kindOf(decl *reflection.Declaration) string {
	ref := imports.NewReference(decl, nil)
	if dir := c.fullMeta.GetDirectiveMetadata(ref); dir != nil {
		if dir.IsComponent() {
			return "Component"
		}
		return "Directive"
	}
	return "Pipe"
}

func (c *Compilation) standaloneImportDiagnostics(component *componentSource) []*diagnostics.Diagnostic {
	var diags []*diagnostics.Diagnostic
	rawImports := component.meta.RawImports()
	for _, ref := range component.meta.Imports() {
		if dir := c.fullMeta.GetDirectiveMetadata(ref); dir != nil {
			if !dir.IsStandalone() {
				kind := "directive"
				if dir.IsComponent() {
					kind = "component"
				}
				diags = append(diags, scope.MakeNotStandaloneDiagnostic(c.scopeReader, ref, component.decl, rawImports, kind))
			}
			continue
		}
		if pipe := c.fullMeta.GetPipeMetadata(ref); pipe != nil {
			if !pipe.IsStandalone {
				diags = append(diags, scope.MakeNotStandaloneDiagnostic(c.scopeReader, ref, component.decl, rawImports, "pipe"))
			}
			continue
		}
		if c.fullMeta.GetNgModuleMetadata(ref) != nil {
			continue
		}
		diags = append(diags, scope.MakeUnknownComponentImportDiagnostic(ref, component.decl, rawImports))
	}
	return diags
}

// AnalyzeComponent binds the template of a component against its type-check scope.
// Analyses are cached for the lifetime of the compilation.
func (c *Compilation) AnalyzeComponent(component *reflection.Declaration) (*ComponentAnalysis, error) {
	if analysis, ok := c.analyses[component]; ok {
		return analysis, nil
	}
	var source *componentSource
	for _, candidate := range c.components {
		if candidate.decl == component {
			source = candidate
			break
		}
	}
	if source == nil {
		return nil, errors.Errorf("%s is not a component", component)
	}

	parsed := view.TemplateNodesToRender3Ast(source.template, component.SourceFile.FileName)
	typeCheckScope := c.typeCheck.GetTypeCheckScope(component)
	bound := view.NewR3TargetBinder(typeCheckScope.Matcher).Bind(&view.Target{Template: parsed.Nodes})

	analysis := &ComponentAnalysis{
		Component:      component,
		Scope:          c.scopeReader.GetScopeForComponent(component),
		TypeCheckScope: typeCheckScope,
		Bound:          bound,
		IsPoisoned:     typeCheckScope.IsPoisoned,
	}
	for _, parseError := range parsed.Errors {
		analysis.TemplateErrors = append(analysis.TemplateErrors, parseError.Error())
	}
	for _, dir := range bound.GetUsedDirectives() {
		if meta, ok := dir.(*metadata.DirectiveMeta); ok {
			analysis.UsedDirectives = append(analysis.UsedDirectives, meta)
		}
	}
	for _, name := range bound.GetUsedPipes() {
		pipe, ok := typeCheckScope.Pipes[name]
		if !ok {
			analysis.UnknownPipes = append(analysis.UnknownPipes, name)
			if !typeCheckScope.IsPoisoned {
				// A poisoned scope may be missing the pipe for another reason already reported.
				analysis.Diagnostics = append(analysis.Diagnostics, diagnostics.MakeDiagnostic(diagnostics.MissingPipe,
					component.SourceFile.FileName, component.Name, fmt.Sprintf("No pipe found with name '%s'.", name)))
			}
			continue
		}
		analysis.UsedPipes = append(analysis.UsedPipes, pipe)
	}

	if _, ok := analysis.Scope.(*scope.LocalModuleScope); ok && c.needsRemoteScope(component, analysis) {
		analysis.RemoteScope = true
		var directives, pipes []*imports.Reference
		for _, dir := range declaredDirectives(analysis.UsedDirectives) {
			directives = append(directives, dir.GetRef())
		}
		for _, pipe := range analysis.UsedPipes {
			pipes = append(pipes, pipe.Ref)
		}
		c.localScopes.SetComponentRemoteScope(component, directives, pipes)
	}

	c.logger.Debug("component analyzed",
		"component", component.String(),
		"directives", len(analysis.UsedDirectives),
		"pipes", len(analysis.UsedPipes),
		"unknownPipes", len(analysis.UnknownPipes),
		"poisoned", analysis.IsPoisoned,
		"remoteScope", analysis.RemoteScope)
	c.analyses[component] = analysis
	return analysis, nil
}

// needsRemoteScope reports whether importing any used directive or pipe into the component's
// file would create an import cycle.
func (c *Compilation) needsRemoteScope(component *reflection.Declaration, analysis *ComponentAnalysis) bool {
	var used []*reflection.Declaration
	for _, dir := range declaredDirectives(analysis.UsedDirectives) {
		used = append(used, dir.GetRef().Node)
	}
	for _, pipe := range analysis.UsedPipes {
		used = append(used, pipe.Ref.Node)
	}
	componentFile := component.SourceFile.FileName
	for _, decl := range used {
		if decl.SourceFile.IsDeclarationFile || decl.SourceFile.FileName == componentFile {
			continue
		}
		if c.importsTransitively(decl.SourceFile.FileName, componentFile) {
			return true
		}
	}
	return false
}

// declaredDirectives drops host directive copies. Their host brings them along, so they
// are never imported on their own.
func declaredDirectives(directives []*metadata.DirectiveMeta) []*metadata.DirectiveMeta {
	var declared []*metadata.DirectiveMeta
	for _, dir := range directives {
		if dir.MatchSource() == metadata.MatchSourceSelector {
			declared = append(declared, dir)
		}
	}
	return declared
}

// importsTransitively reports whether from reaches to through file imports
func (c *Compilation) importsTransitively(from, to string) bool {
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, imported := range c.fileImports[current] {
			if imported == to {
				return true
			}
			if !visited[imported] {
				visited[imported] = true
				queue = append(queue, imported)
			}
		}
	}
	return false
}

// Snapshot records the scopes of every component of the program.
func (c *Compilation) Snapshot() *incremental.ScopeSnapshot {
	return incremental.CaptureScopes(c.scopeReader, c.Components())
}

// SaveSnapshot writes the scope snapshot of the program to URL.
func (c *Compilation) SaveSnapshot(ctx context.Context, URL string) error {
	snapshot := c.Snapshot()
	c.logger.Debug("saving scope snapshot", "url", URL, "components", len(snapshot.Components))
	return incremental.NewStore(nil).Save(ctx, URL, snapshot)
}
