package scope_test

import (
	"testing"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
)

// program is a small in-memory program: classes live in files, and metadata of declaration
// files is kept apart from that of the files under compilation.
type program struct {
	t     *testing.T
	host  *reflection.StaticReflectionHost
	local *metadata.LocalMetadataRegistry
	dts   *metadata.LocalMetadataRegistry
	refs  map[string]*imports.Reference
}

func newProgram(t *testing.T) *program {
	return &program{
		t:     t,
		host:  reflection.NewStaticReflectionHost(),
		local: metadata.NewLocalMetadataRegistry(),
		dts:   metadata.NewLocalMetadataRegistry(),
		refs:  make(map[string]*imports.Reference),
	}
}

// class declares (once) an exported class and returns a reference to it. Classes of
// declaration files are owned by the module named after their directory.
func (p *program) class(fileName, name string) *imports.Reference {
	p.t.Helper()
	key := fileName + "#" + name
	if ref, ok := p.refs[key]; ok {
		return ref
	}
	sf := p.host.AddFile(reflection.NewSourceFile(fileName))
	decl, err := p.host.Declare(sf, name, reflection.DeclarationKindClass, true)
	if err != nil {
		p.t.Fatalf("declare %s: %v", key, err)
	}
	var owning *imports.OwningModule
	if sf.IsDeclarationFile {
		owning = &imports.OwningModule{Specifier: "@lib/" + name, ResolutionContext: fileName}
	}
	ref := imports.NewReference(decl, owning)
	p.refs[key] = ref
	return ref
}

func (p *program) registry(ref *imports.Reference) *metadata.LocalMetadataRegistry {
	if ref.Node.SourceFile.IsDeclarationFile {
		return p.dts
	}
	return p.local
}

func (p *program) directive(ref *imports.Reference, selector string, configure ...func(*metadata.DirectiveFields)) *metadata.DirectiveMeta {
	f := metadata.DirectiveFields{Ref: ref, Selector: &selector}
	for _, c := range configure {
		c(&f)
	}
	meta := metadata.NewDirectiveMeta(f)
	p.registry(ref).RegisterDirectiveMetadata(meta)
	return meta
}

func (p *program) pipe(ref *imports.Reference, name string, standalone bool) *metadata.PipeMeta {
	meta := &metadata.PipeMeta{Ref: ref, Name: name, IsStandalone: standalone}
	p.registry(ref).RegisterPipeMetadata(meta)
	return meta
}

func (p *program) ngModule(ref *imports.Reference, declarations, imported, exported []*imports.Reference) *metadata.NgModuleMeta {
	meta := &metadata.NgModuleMeta{Ref: ref, Declarations: declarations, Imports: imported, Exports: exported}
	p.registry(ref).RegisterNgModuleMetadata(meta)
	return meta
}

func (p *program) fullReader() metadata.MetadataReader {
	return metadata.NewCompoundMetadataReader(p.local, p.dts)
}

// localScopes registers every NgModule of the files under compilation into a new
// LocalModuleScopeRegistry.
func (p *program) localScopes(aliasingHost imports.AliasingHost, modules ...*metadata.NgModuleMeta) (*scope.LocalModuleScopeRegistry, *scope.MetadataDtsModuleScopeResolver) {
	dtsResolver := scope.NewMetadataDtsModuleScopeResolver(p.dts, aliasingHost)
	emitter := imports.NewReferenceEmitter(
		imports.LocalIdentifierStrategy{},
		imports.AliasStrategy{},
		imports.AbsoluteModuleStrategy{Host: p.host},
		imports.LogicalProjectStrategy{},
	)
	registry := scope.NewLocalModuleScopeRegistry(p.local, p.fullReader(), dtsResolver, emitter, aliasingHost)
	for _, m := range modules {
		registry.RegisterNgModuleMetadata(m)
	}
	return registry, dtsResolver
}

func standalone(f *metadata.DirectiveFields) { f.IsStandalone = true }

func component(f *metadata.DirectiveFields) { f.IsComponent = true }

func importing(refs ...*imports.Reference) func(*metadata.DirectiveFields) {
	return func(f *metadata.DirectiveFields) { f.Imports = refs }
}

func refs(refs ...*imports.Reference) []*imports.Reference { return refs }

func depNames(deps []metadata.Meta) []string {
	var names []string
	for _, dep := range deps {
		names = append(names, dep.GetRef().DebugName())
	}
	return names
}
