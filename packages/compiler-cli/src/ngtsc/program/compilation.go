package program

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/incremental"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
	"ngtsc-go/packages/compiler/core"
	"ngtsc-go/packages/compiler/src/css"
	"ngtsc-go/packages/compiler/src/render3/view"
	"ngtsc-go/packages/compiler/src/util"
)

// Compilation is a single compilation of a manifest. It owns every registry and cache, none of
// which outlive it.
type Compilation struct {
	ID      string
	options *Options
	logger  *slog.Logger

	host      *reflection.StaticReflectionHost
	localMeta *metadata.LocalMetadataRegistry
	dtsMeta   *metadata.LocalMetadataRegistry
	fullMeta  metadata.MetadataReader

	localScopes      *scope.LocalModuleScopeRegistry
	dtsScopes        *scope.MetadataDtsModuleScopeResolver
	standaloneScopes *scope.StandaloneComponentScopeReader
	scopeReader      *scope.CompoundComponentScopeReader
	typeCheck        *scope.TypeCheckScopeRegistry

	owningModules map[string]string
	fileImports   map[string][]string
	components    []*componentSource
	declarations  []*reflection.Declaration
	ngModules     []*metadata.NgModuleMeta

	diagnostics []*diagnostics.Diagnostic
	analyses    map[*reflection.Declaration]*ComponentAnalysis
}

type componentSource struct {
	decl     *reflection.Declaration
	meta     *metadata.DirectiveMeta
	template Template
}

// NewCompilation builds the program described by manifest. A snapshot found at
// options.SnapshotURL serves the scopes of components the manifest cannot scope itself.
func NewCompilation(ctx context.Context, manifest *Manifest, options *Options, logger *slog.Logger) (*Compilation, error) {
	if options == nil {
		options = DefaultOptions()
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = discardLogger()
	}
	id := uuid.New().String()
	c := &Compilation{
		ID:            id,
		options:       options,
		logger:        logger.With("compilation", id),
		host:          reflection.NewStaticReflectionHost(),
		localMeta:     metadata.NewLocalMetadataRegistry(),
		dtsMeta:       metadata.NewLocalMetadataRegistry(),
		owningModules: make(map[string]string),
		fileImports:   make(map[string][]string),
		analyses:      make(map[*reflection.Declaration]*ComponentAnalysis),
	}
	c.fullMeta = metadata.NewCompoundMetadataReader(c.localMeta, c.dtsMeta)

	if err := c.declareFiles(manifest.Files); err != nil {
		return nil, err
	}

	aliasingHost, emitter := c.aliasing()
	c.dtsScopes = scope.NewMetadataDtsModuleScopeResolver(c.dtsMeta, aliasingHost)
	c.localScopes = scope.NewLocalModuleScopeRegistry(c.localMeta, c.fullMeta, c.dtsScopes, emitter, aliasingHost)
	c.standaloneScopes = scope.NewStandaloneComponentScopeReader(c.fullMeta, c.localScopes, c.dtsScopes)
	readers := []scope.ComponentScopeReader{c.localScopes, c.standaloneScopes}
	if options.SnapshotURL != "" {
		snapshot, err := incremental.NewStore(nil).Load(ctx, options.SnapshotURL)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			c.logger.Debug("using scope snapshot", "url", options.SnapshotURL, "components", len(snapshot.Components))
			readers = append(readers, incremental.NewSnapshotScopeReader(snapshot, c.host, c.fullMeta))
		}
	}
	c.scopeReader = scope.NewCompoundComponentScopeReader(readers...)
	c.typeCheck = scope.NewTypeCheckScopeRegistry(c.scopeReader, c.fullMeta, metadata.NewHostDirectivesResolver(c.fullMeta))

	standaloneDefault := core.StandaloneDefaultForVersion(manifest.AngularVersion)
	localRegistry := metadata.NewCompoundMetadataRegistry(c.localMeta, c.localScopes)
	registryOf := func(ref *imports.Reference) metadata.MetadataRegistry {
		if ref.Node.SourceFile.IsDeclarationFile {
			return c.dtsMeta
		}
		return localRegistry
	}

	for _, def := range manifest.Directives {
		meta, err := c.directiveMeta(def, standaloneDefault)
		if err != nil {
			return nil, err
		}
		registryOf(meta.GetRef()).RegisterDirectiveMetadata(meta)
		c.declarations = append(c.declarations, meta.GetRef().Node)
		if meta.IsComponent() {
			c.components = append(c.components, &componentSource{decl: meta.GetRef().Node, meta: meta, template: def.Template})
		}
	}
	for _, def := range manifest.Pipes {
		ref, err := c.ref(def.Class)
		if err != nil {
			return nil, err
		}
		meta := &metadata.PipeMeta{Ref: ref, Name: def.Name, IsStandalone: standaloneDefault, IsPure: true}
		if def.Standalone != nil {
			meta.IsStandalone = *def.Standalone
		}
		if def.Pure != nil {
			meta.IsPure = *def.Pure
		}
		registryOf(ref).RegisterPipeMetadata(meta)
		c.declarations = append(c.declarations, ref.Node)
	}
	for _, def := range manifest.NgModules {
		meta, err := c.ngModuleMeta(def)
		if err != nil {
			return nil, err
		}
		registryOf(meta.Ref).RegisterNgModuleMetadata(meta)
		if !meta.Ref.Node.SourceFile.IsDeclarationFile {
			c.ngModules = append(c.ngModules, meta)
		}
	}

	c.logger.Debug("compilation created",
		"files", len(manifest.Files),
		"directives", len(manifest.Directives),
		"pipes", len(manifest.Pipes),
		"ngModules", len(manifest.NgModules),
		"aliasing", options.Aliasing)
	return c, nil
}

func (c *Compilation) declareFiles(files []FileSpec) error {
	for _, def := range files {
		sf := c.host.AddFile(reflection.NewSourceFile(def.Name))
		if def.Module != "" {
			c.owningModules[def.Name] = def.Module
		}
		c.fileImports[def.Name] = append(c.fileImports[def.Name], def.Imports...)
		for _, decl := range def.Declarations {
			kind, err := declarationKindOf(decl.Kind)
			if err != nil {
				return errors.Wrapf(err, "%s#%s", def.Name, decl.Name)
			}
			exported := decl.Exported == nil || *decl.Exported
			if _, err := c.host.Declare(sf, decl.Name, kind, exported); err != nil {
				return err
			}
		}
	}
	// Re-exports may point at files declared later.
	for _, def := range files {
		sf := c.host.File(def.Name)
		for _, export := range def.Exports {
			ref, err := c.ref(export.Symbol)
			if err != nil {
				return errors.Wrapf(err, "export of %s", def.Name)
			}
			name := export.As
			if name == "" {
				name = ref.Node.Name
			}
			c.host.Export(sf, name, ref.Node)
		}
	}
	return nil
}

func declarationKindOf(kind string) (reflection.DeclarationKind, error) {
	switch kind {
	case "", "class":
		return reflection.DeclarationKindClass, nil
	case "function":
		return reflection.DeclarationKindFunction, nil
	case "variable":
		return reflection.DeclarationKindVariable, nil
	}
	return 0, errors.Errorf("unknown declaration kind %q", kind)
}

func (c *Compilation) aliasing() (imports.AliasingHost, *imports.ReferenceEmitter) {
	strategies := []imports.ReferenceEmitStrategy{
		imports.LocalIdentifierStrategy{},
		imports.AliasStrategy{},
		imports.AbsoluteModuleStrategy{Host: c.host},
	}
	var aliasingHost imports.AliasingHost
	switch c.options.Aliasing {
	case AliasingUnifiedModules:
		moduleHost := imports.NewLogicalFileSystemModuleHost(c.options.RootDirs)
		aliasingHost = imports.NewUnifiedModulesAliasingHost(moduleHost)
		strategies = append(strategies, imports.UnifiedModulesStrategy{Host: moduleHost})
	case AliasingPrivateExports:
		aliasingHost = imports.NewPrivateExportAliasingHost(c.host)
		strategies = append(strategies, imports.LogicalProjectStrategy{})
	default:
		strategies = append(strategies, imports.LogicalProjectStrategy{})
	}
	return aliasingHost, imports.NewReferenceEmitter(strategies...)
}

// ref resolves a `<file>#<name>` symbol
func (c *Compilation) ref(symbol string) (*imports.Reference, error) {
	fileName, name, ok := splitSymbol(symbol)
	if !ok {
		return nil, errors.Errorf("invalid symbol %q, expected <file>#<name>", symbol)
	}
	decl := c.host.GetDeclaration(fileName, name)
	if decl == nil {
		return nil, errors.Errorf("unknown symbol %s", symbol)
	}
	var owning *imports.OwningModule
	if module, ok := c.owningModules[fileName]; ok {
		owning = &imports.OwningModule{Specifier: module, ResolutionContext: fileName}
	}
	return imports.NewReference(decl, owning), nil
}

func (c *Compilation) refs(symbols []string) ([]*imports.Reference, error) {
	var refs []*imports.Reference
	for _, symbol := range symbols {
		ref, err := c.ref(symbol)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (c *Compilation) directiveMeta(def DirectiveSpec, standaloneDefault bool) (*metadata.DirectiveMeta, error) {
	ref, err := c.ref(def.Class)
	if err != nil {
		return nil, err
	}
	if def.Selector != nil {
		if _, err := css.ParseCssSelector(*def.Selector); err != nil {
			return nil, errors.Wrapf(err, "selector of %s", def.Class)
		}
	}
	f := metadata.DirectiveFields{
		Ref:                 ref,
		Selector:            def.Selector,
		IsComponent:         def.Component,
		IsStandalone:        standaloneDefault,
		IsStructural:        def.Structural,
		IsSignal:            def.Signal,
		Inputs:              propertyMapping(def.Inputs),
		Outputs:             propertyMapping(def.Outputs),
		ExportAs:            def.ExportAs,
		IsPoisoned:          def.Poisoned,
		NgContentSelectors:  def.NgContentSelectors,
		PreserveWhitespaces: def.PreserveWhitespaces,
	}
	if def.Standalone != nil {
		f.IsStandalone = *def.Standalone
	}
	if len(def.Animations) > 0 {
		f.AnimationTriggerNames = &view.LegacyAnimationTriggerNames{StaticTriggerNames: def.Animations}
	}
	switch def.BaseClass {
	case "":
	case "dynamic":
		f.BaseClass = metadata.DynamicBaseClass
	default:
		base, err := c.ref(def.BaseClass)
		if err != nil {
			return nil, errors.Wrapf(err, "base class of %s", def.Class)
		}
		f.BaseClass = &metadata.BaseClass{Ref: base}
	}
	for _, host := range def.HostDirectives {
		hostRef, err := c.ref(host.Directive)
		if err != nil {
			return nil, errors.Wrapf(err, "host directive of %s", def.Class)
		}
		f.HostDirectives = append(f.HostDirectives, metadata.HostDirectiveMeta{
			Directive: hostRef,
			Inputs:    exposedNames(host.Inputs),
			Outputs:   exposedNames(host.Outputs),
		})
	}
	if f.Imports, err = c.refs(def.Imports); err != nil {
		return nil, errors.Wrapf(err, "imports of %s", def.Class)
	}
	f.RawImports = rawList(def.Imports)
	if f.Schemas, err = schemasOf(def.Schemas); err != nil {
		return nil, errors.Wrapf(err, "schemas of %s", def.Class)
	}
	return metadata.NewDirectiveMeta(f), nil
}

func (c *Compilation) ngModuleMeta(def NgModuleSpec) (*metadata.NgModuleMeta, error) {
	ref, err := c.ref(def.Class)
	if err != nil {
		return nil, err
	}
	meta := &metadata.NgModuleMeta{
		Ref:             ref,
		RawDeclarations: rawList(def.Declarations),
		RawImports:      rawList(def.Imports),
		RawExports:      rawList(def.Exports),
	}
	if meta.Declarations, err = c.refs(def.Declarations); err != nil {
		return nil, errors.Wrapf(err, "declarations of %s", def.Class)
	}
	if meta.Imports, err = c.refs(def.Imports); err != nil {
		return nil, errors.Wrapf(err, "imports of %s", def.Class)
	}
	if meta.Exports, err = c.refs(def.Exports); err != nil {
		return nil, errors.Wrapf(err, "exports of %s", def.Class)
	}
	if meta.Schemas, err = schemasOf(def.Schemas); err != nil {
		return nil, errors.Wrapf(err, "schemas of %s", def.Class)
	}
	return meta, nil
}

// propertyMapping reads `name` and `classProperty: bindingName` entries
func propertyMapping(entries []string) *metadata.ClassPropertyMapping {
	var mapped []metadata.InputOrOutput
	for _, entry := range entries {
		parts := util.SplitAtColon(entry, []string{entry, entry})
		mapped = append(mapped, metadata.InputOrOutput{ClassPropertyName: parts[0], BindingPropertyName: parts[1]})
	}
	return metadata.NewClassPropertyMapping(mapped...)
}

// exposedNames reads `name` and `name: alias` entries of a host directive
func exposedNames(entries []string) map[string]string {
	if len(entries) == 0 {
		return nil
	}
	names := make(map[string]string, len(entries))
	for _, entry := range entries {
		parts := util.SplitAtColon(entry, []string{entry, entry})
		names[parts[0]] = parts[1]
	}
	return names
}

func schemasOf(names []string) ([]core.SchemaMetadata, error) {
	var schemas []core.SchemaMetadata
	for _, name := range names {
		schema, err := core.SchemaByName(name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

// rawList renders a list of symbols the way it would be written in source
func rawList(symbols []string) string {
	if len(symbols) == 0 {
		return ""
	}
	names := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if _, name, ok := splitSymbol(symbol); ok {
			names = append(names, name)
		} else {
			names = append(names, symbol)
		}
	}
	return "[" + strings.Join(names, ", ") + "]"
}
