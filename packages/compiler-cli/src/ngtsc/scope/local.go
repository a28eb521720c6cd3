package scope

import (
	"fmt"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler/src/output"
)

// exportedScopeResult is the outcome of reading the export scope of an import or export of an
// NgModule.
type exportedScopeResult int

const (
	exportedScopeFound exportedScopeResult = iota
	exportedScopeNotModule
	exportedScopeInvalid
	exportedScopeCycle
)

// LocalModuleScopeRegistry computes the scopes of the NgModules under compilation, and of the
// components they declare.
//
// It first collects NgModule metadata as it is registered. The first scope read seals the
// registry: registering metadata afterwards is an assertion error, since scopes already
// computed would be stale.
type LocalModuleScopeRegistry struct {
	localReader           metadata.MetadataReader
	fullReader            metadata.MetadataReader
	dependencyScopeReader DtsModuleScopeResolver
	refEmitter            *imports.ReferenceEmitter
	aliasingHost          imports.AliasingHost

	sealed bool

	declarationToModule   map[*reflection.Declaration]DeclarationData
	duplicateDeclarations map[*reflection.Declaration][]DeclarationData
	moduleToRef           map[*reflection.Declaration]*imports.Reference

	// cache holds computed scopes. A present key with a nil value is either an NgModule
	// without metadata or one whose scope is being computed, see inProgress.
	cache      map[*reflection.Declaration]*LocalModuleScope
	inProgress map[*reflection.Declaration]bool

	remoteScoping               map[*reflection.Declaration]*RemoteScope
	scopeErrors                 map[*reflection.Declaration][]*diagnostics.Diagnostic
	modulesWithStructuralErrors map[*reflection.Declaration]bool
}

// NewLocalModuleScopeRegistry creates a new LocalModuleScopeRegistry. localReader reads the
// metadata of the program under compilation and fullReader that of libraries too.
// aliasingHost may be nil, in which case no re-exports are generated.
func NewLocalModuleScopeRegistry(localReader, fullReader metadata.MetadataReader, dependencyScopeReader DtsModuleScopeResolver, refEmitter *imports.ReferenceEmitter, aliasingHost imports.AliasingHost) *LocalModuleScopeRegistry {
	return &LocalModuleScopeRegistry{
		localReader:                 localReader,
		fullReader:                  fullReader,
		dependencyScopeReader:       dependencyScopeReader,
		refEmitter:                  refEmitter,
		aliasingHost:                aliasingHost,
		declarationToModule:         make(map[*reflection.Declaration]DeclarationData),
		duplicateDeclarations:       make(map[*reflection.Declaration][]DeclarationData),
		moduleToRef:                 make(map[*reflection.Declaration]*imports.Reference),
		cache:                       make(map[*reflection.Declaration]*LocalModuleScope),
		inProgress:                  make(map[*reflection.Declaration]bool),
		remoteScoping:               make(map[*reflection.Declaration]*RemoteScope),
		scopeErrors:                 make(map[*reflection.Declaration][]*diagnostics.Diagnostic),
		modulesWithStructuralErrors: make(map[*reflection.Declaration]bool),
	}
}

// RegisterNgModuleMetadata records an NgModule and the classes it declares.
func (r *LocalModuleScopeRegistry) RegisterNgModuleMetadata(data *metadata.NgModuleMeta) {
	r.assertCollecting()
	ngModule := data.Ref.Node
	r.moduleToRef[ngModule] = data.Ref
	for _, decl := range data.Declarations {
		r.registerDeclarationOfModule(ngModule, decl, data.RawDeclarations)
	}
}

// RegisterDirectiveMetadata only checks the registry still collects: directives are read back
// through the metadata readers.
func (r *LocalModuleScopeRegistry) RegisterDirectiveMetadata(*metadata.DirectiveMeta) {
	r.assertCollecting()
}

// RegisterPipeMetadata only checks the registry still collects.
func (r *LocalModuleScopeRegistry) RegisterPipeMetadata(*metadata.PipeMeta) {
	r.assertCollecting()
}

func (r *LocalModuleScopeRegistry) GetScopeForComponent(clazz *reflection.Declaration) ComponentScope {
	data, ok := r.declarationToModule[clazz]
	if !ok {
		return nil
	}
	if s := r.GetScopeOfModule(data.NgModule); s != nil {
		return s
	}
	return nil
}

// GetDuplicateDeclarations returns every declaration of a class declared by more than one
// NgModule, or nil.
func (r *LocalModuleScopeRegistry) GetDuplicateDeclarations(node *reflection.Declaration) []DeclarationData {
	data, ok := r.duplicateDeclarations[node]
	if !ok {
		return nil
	}
	return append([]DeclarationData(nil), data...)
}

// GetScopeOfModule returns the scope of a registered NgModule, or nil.
func (r *LocalModuleScopeRegistry) GetScopeOfModule(clazz *reflection.Declaration) *LocalModuleScope {
	ref, ok := r.moduleToRef[clazz]
	if !ok {
		return nil
	}
	return r.getScopeOfModuleReference(ref)
}

// GetDiagnosticsOfModule computes the scope of an NgModule if needed and returns the errors
// found doing so, or nil.
func (r *LocalModuleScopeRegistry) GetDiagnosticsOfModule(clazz *reflection.Declaration) []*diagnostics.Diagnostic {
	r.GetScopeOfModule(clazz)
	return r.scopeErrors[clazz]
}

// GetCompilationScopes returns, for every class declared by exactly one NgModule, the
// compilation scope it is compiled in.
func (r *LocalModuleScopeRegistry) GetCompilationScopes() []CompilationScope {
	var scopes []CompilationScope
	for _, data := range r.declarationsInOrder() {
		s := r.GetScopeOfModule(data.NgModule)
		if s == nil {
			continue
		}
		scopes = append(scopes, CompilationScope{
			Declaration: data.Ref.Node,
			NgModule:    data.NgModule,
			Scope:       s.Compilation,
		})
	}
	return scopes
}

// CompilationScope is the scope a declared class is compiled in.
type CompilationScope struct {
	Declaration *reflection.Declaration
	NgModule    *reflection.Declaration
	Scope       ScopeData
}

// SetComponentRemoteScope records that a component's dependencies must be registered from its
// NgModule's file.
func (r *LocalModuleScopeRegistry) SetComponentRemoteScope(node *reflection.Declaration, directives, pipes []*imports.Reference) {
	r.remoteScoping[node] = &RemoteScope{Directives: directives, Pipes: pipes}
}

func (r *LocalModuleScopeRegistry) GetRemoteScope(node *reflection.Declaration) *RemoteScope {
	return r.remoteScoping[node]
}

func (r *LocalModuleScopeRegistry) declarationsInOrder() []DeclarationData {
	var result []DeclarationData
	seen := make(map[*reflection.Declaration]bool)
	for _, ref := range r.orderedModules() {
		meta := r.localReader.GetNgModuleMetadata(ref)
		if meta == nil {
			continue
		}
		for _, decl := range meta.Declarations {
			data, ok := r.declarationToModule[decl.Node]
			if !ok || data.NgModule != ref.Node || seen[decl.Node] {
				continue
			}
			seen[decl.Node] = true
			result = append(result, data)
		}
	}
	return result
}

func (r *LocalModuleScopeRegistry) orderedModules() []*imports.Reference {
	var refs []*imports.Reference
	for _, ref := range r.moduleToRef {
		refs = append(refs, ref)
	}
	sortReferences(refs)
	return refs
}

func (r *LocalModuleScopeRegistry) registerDeclarationOfModule(ngModule *reflection.Declaration, decl *imports.Reference, rawDeclarations string) {
	declData := DeclarationData{NgModule: ngModule, Ref: decl, RawDeclarations: rawDeclarations}

	if duplicates, ok := r.duplicateDeclarations[decl.Node]; ok {
		// The class is already known to be declared more than once.
		for i, existing := range duplicates {
			if existing.NgModule == ngModule {
				duplicates[i] = declData
				return
			}
		}
		r.duplicateDeclarations[decl.Node] = append(duplicates, declData)
		return
	}

	if first, ok := r.declarationToModule[decl.Node]; ok && first.NgModule != ngModule {
		// Both NgModules are structurally broken, and the class now has no single NgModule.
		r.modulesWithStructuralErrors[first.NgModule] = true
		r.modulesWithStructuralErrors[ngModule] = true
		r.duplicateDeclarations[decl.Node] = []DeclarationData{first, declData}
		delete(r.declarationToModule, decl.Node)
		return
	}

	r.declarationToModule[decl.Node] = declData
}

func (r *LocalModuleScopeRegistry) getScopeOfModuleReference(ref *imports.Reference) *LocalModuleScope {
	if cached, ok := r.cache[ref.Node]; ok && !r.inProgress[ref.Node] {
		return cached
	}

	// Reading a scope seals the registry.
	r.sealed = true
	r.inProgress[ref.Node] = true
	r.cache[ref.Node] = nil
	defer delete(r.inProgress, ref.Node)

	ngModule := r.localReader.GetNgModuleMetadata(ref)
	if ngModule == nil {
		return nil
	}

	var diags []*diagnostics.Diagnostic
	compilationDirectives := newMetaMap()
	compilationPipes := newMetaMap()
	exportDirectives := newMetaMap()
	exportPipes := newMetaMap()
	declared := make(map[*reflection.Declaration]bool)

	isPoisoned := r.modulesWithStructuralErrors[ngModule.Ref.Node]

	for _, decl := range ngModule.Imports {
		importScope, result := r.getExportedScope(decl, &diags, ref.Node, true)
		if result == exportedScopeNotModule {
			// Standalone declarations can be imported directly.
			if directive := r.fullReader.GetDirectiveMetadata(decl); directive != nil {
				if directive.IsStandalone() {
					compilationDirectives.set(decl.Node, directive.WithRef(decl))
				} else {
					kind := "directive"
					if directive.IsComponent() {
						kind = "component"
					}
					diags = append(diags, MakeNotStandaloneDiagnostic(r, decl, ref.Node, ngModule.RawImports, kind))
					isPoisoned = true
				}
				continue
			}
			if pipe := r.fullReader.GetPipeMetadata(decl); pipe != nil {
				if pipe.IsStandalone {
					compilationPipes.set(decl.Node, pipe.WithRef(decl))
				} else {
					diags = append(diags, MakeNotStandaloneDiagnostic(r, decl, ref.Node, ngModule.RawImports, "pipe"))
					isPoisoned = true
				}
				continue
			}
			diags = append(diags, invalidRef(ref.Node, decl, ngModule.RawImports, true))
			isPoisoned = true
			continue
		}

		if result == exportedScopeInvalid || result == exportedScopeCycle || importScope.Exported.IsPoisoned {
			isPoisoned = true
			if result != exportedScopeCycle {
				diags = append(diags, invalidTransitiveNgModuleRef(ref.Node, decl, ngModule.RawImports, true))
			}
			if result != exportedScopeFound {
				continue
			}
		}

		for _, dep := range importScope.Exported.Dependencies {
			switch dep.Kind() {
			case metadata.MetaKindDirective:
				compilationDirectives.set(dep.GetRef().Node, dep)
			case metadata.MetaKindPipe:
				compilationPipes.set(dep.GetRef().Node, dep)
			}
		}
	}

	for _, decl := range ngModule.Declarations {
		directive := r.localReader.GetDirectiveMetadata(decl)
		pipe := r.localReader.GetPipeMetadata(decl)
		switch {
		case directive != nil:
			if directive.IsStandalone() {
				diags = append(diags, declarationIsStandalone(ref.Node, decl, ngModule.RawDeclarations, declarationKind(directive)))
				isPoisoned = true
				continue
			}
			compilationDirectives.set(decl.Node, directive.WithRef(decl))
			if directive.IsPoisoned() {
				isPoisoned = true
			}
		case pipe != nil:
			if pipe.IsStandalone {
				diags = append(diags, declarationIsStandalone(ref.Node, decl, ngModule.RawDeclarations, "Pipe"))
				isPoisoned = true
				continue
			}
			compilationPipes.set(decl.Node, pipe.WithRef(decl))
		default:
			diags = append(diags, invalidDeclaration(ref.Node, decl, ngModule.RawDeclarations))
			isPoisoned = true
			continue
		}
		declared[decl.Node] = true
	}

	for _, decl := range ngModule.Exports {
		exportScope, result := r.getExportedScope(decl, &diags, ref.Node, false)
		switch {
		case result == exportedScopeInvalid || result == exportedScopeCycle ||
			(result == exportedScopeFound && exportScope.Exported.IsPoisoned):
			isPoisoned = true
			if result != exportedScopeCycle {
				diags = append(diags, invalidTransitiveNgModuleRef(ref.Node, decl, ngModule.RawExports, false))
			}
			if result != exportedScopeFound {
				continue
			}
			exportDependencies(exportScope, exportDirectives, exportPipes)
		case result == exportedScopeFound:
			exportDependencies(exportScope, exportDirectives, exportPipes)
		case compilationDirectives.has(decl.Node):
			exportDirectives.set(decl.Node, compilationDirectives.get(decl.Node))
		case compilationPipes.has(decl.Node):
			exportPipes.set(decl.Node, compilationPipes.get(decl.Node))
		default:
			dirMeta := r.fullReader.GetDirectiveMetadata(decl)
			pipeMeta := r.fullReader.GetPipeMetadata(decl)
			if dirMeta != nil || pipeMeta != nil {
				isStandalone := pipeMeta != nil && pipeMeta.IsStandalone
				if dirMeta != nil {
					isStandalone = dirMeta.IsStandalone()
				}
				diags = append(diags, invalidReexport(ref.Node, decl, ngModule.RawExports, isStandalone))
			} else {
				diags = append(diags, invalidRef(ref.Node, decl, ngModule.RawExports, false))
			}
			isPoisoned = true
		}
	}

	exported := ScopeData{
		Dependencies: append(exportDirectives.values(), exportPipes.values()...),
		IsPoisoned:   isPoisoned,
	}
	reexports := r.getReexports(ngModule, ref, declared, exported.Dependencies, &diags)

	s := &LocalModuleScope{
		NgModule: ngModule.Ref.Node,
		Compilation: ScopeData{
			Dependencies: append(compilationDirectives.values(), compilationPipes.values()...),
			IsPoisoned:   isPoisoned,
		},
		Exported:  exported,
		Reexports: reexports,
		Schemas:   ngModule.Schemas,
	}

	if len(diags) > 0 {
		r.scopeErrors[ref.Node] = diags
		r.modulesWithStructuralErrors[ref.Node] = true
	}
	r.cache[ref.Node] = s
	return s
}

func exportDependencies(exportScope *ExportScope, directives, pipes *metaMap) {
	for _, dep := range exportScope.Exported.Dependencies {
		switch dep.Kind() {
		case metadata.MetaKindDirective:
			directives.set(dep.GetRef().Node, dep)
		case metadata.MetaKindPipe:
			pipes.set(dep.GetRef().Node, dep)
		}
	}
}

// getExportedScope reads the export scope of an import or export of ownerForErrors.
func (r *LocalModuleScopeRegistry) getExportedScope(ref *imports.Reference, diags *[]*diagnostics.Diagnostic, ownerForErrors *reflection.Declaration, isImport bool) (*ExportScope, exportedScopeResult) {
	if ref.Node.SourceFile.IsDeclarationFile {
		if !ref.Node.IsClass() {
			*diags = append(*diags, diagnostics.MakeDiagnostic(invalidRefCode(isImport), fileOf(ownerForErrors), ref.DebugName(),
				fmt.Sprintf("Appears in the NgModule.%ss of %s, but could not be resolved to an NgModule", listKind(isImport), ownerForErrors.Name)))
			return nil, exportedScopeInvalid
		}
		if exportScope := r.dependencyScopeReader.Resolve(ref); exportScope != nil {
			return exportScope, exportedScopeFound
		}
		return nil, exportedScopeNotModule
	}

	if r.inProgress[ref.Node] {
		*diags = append(*diags, diagnostics.MakeDiagnostic(invalidRefCode(isImport), fileOf(ownerForErrors), ref.DebugName(),
			fmt.Sprintf("NgModule %q field contains a cycle", listKind(isImport))))
		return nil, exportedScopeCycle
	}
	if _, ok := r.moduleToRef[ref.Node]; !ok {
		return nil, exportedScopeNotModule
	}
	s := r.getScopeOfModuleReference(ref)
	if s == nil {
		return nil, exportedScopeNotModule
	}
	return &ExportScope{Exported: s.Exported}, exportedScopeFound
}

func (r *LocalModuleScopeRegistry) getReexports(ngModule *metadata.NgModuleMeta, ref *imports.Reference, declared map[*reflection.Declaration]bool, exported []metadata.Meta, diags *[]*diagnostics.Diagnostic) []Reexport {
	if r.aliasingHost == nil {
		return nil
	}
	sourceFile := ref.Node.SourceFile
	reexports := []Reexport{}
	reexportMap := make(map[string]*imports.Reference)

	for _, dep := range exported {
		exportRef := dep.GetRef()
		if exportRef.Node.SourceFile == sourceFile {
			// Already reachable through the NgModule's own file.
			continue
		}
		isReExport := !declared[exportRef.Node]
		exportName := r.aliasingHost.MaybeAliasSymbolAs(exportRef, sourceFile, ngModule.Ref.Node.Name, isReExport)
		if exportName == "" {
			continue
		}
		if prevRef, ok := reexportMap[exportName]; ok {
			*diags = append(*diags, reexportCollision(ref.Node, prevRef, exportRef))
			continue
		}

		var expr *output.ExternalExpr
		if alias, ok := exportRef.Alias.(*output.ExternalExpr); ok {
			expr = alias
		} else {
			emitted, ok := r.refEmitter.Emit(exportRef.CloneWithNoIdentifiers(), sourceFile).(*output.ExternalExpr)
			if !ok {
				panic(fmt.Sprintf("Assertion error: expected an import of %s from %s", exportRef.DebugName(), sourceFile.FileName))
			}
			expr = emitted
		}
		if expr.Value.ModuleName == nil || expr.Value.Name == nil {
			panic(fmt.Sprintf("Assertion error: expected an external reference to %s", exportRef.DebugName()))
		}
		reexports = append(reexports, Reexport{
			FromModule: *expr.Value.ModuleName,
			SymbolName: *expr.Value.Name,
			AsAlias:    exportName,
		})
		reexportMap[exportName] = exportRef
	}
	return reexports
}

func (r *LocalModuleScopeRegistry) assertCollecting() {
	if r.sealed {
		panic("Assertion error: LocalModuleScopeRegistry is not collecting")
	}
}

// metaMap is a map of metadata by class that keeps insertion order. Setting an existing key
// keeps its position.
type metaMap struct {
	keys  []*reflection.Declaration
	byKey map[*reflection.Declaration]metadata.Meta
}

func newMetaMap() *metaMap {
	return &metaMap{byKey: make(map[*reflection.Declaration]metadata.Meta)}
}

func (m *metaMap) set(key *reflection.Declaration, value metadata.Meta) {
	if _, ok := m.byKey[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.byKey[key] = value
}

func (m *metaMap) has(key *reflection.Declaration) bool {
	_, ok := m.byKey[key]
	return ok
}

func (m *metaMap) get(key *reflection.Declaration) metadata.Meta {
	return m.byKey[key]
}

func (m *metaMap) values() []metadata.Meta {
	result := make([]metadata.Meta, 0, len(m.keys))
	for _, key := range m.keys {
		result = append(result, m.byKey[key])
	}
	return result
}
