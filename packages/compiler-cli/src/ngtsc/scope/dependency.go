package scope

import (
	"fmt"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
)

// MetadataDtsModuleScopeResolver resolves the export scopes of NgModules from declaration
// files, through the metadata those files carry.
//
// Results, including nil ones, are cached per NgModule class.
type MetadataDtsModuleScopeResolver struct {
	dtsMetaReader metadata.MetadataReader
	aliasingHost  imports.AliasingHost
	cache         map[*reflection.Declaration]*ExportScope
}

// NewMetadataDtsModuleScopeResolver creates a new MetadataDtsModuleScopeResolver. aliasingHost
// may be nil.
func NewMetadataDtsModuleScopeResolver(dtsMetaReader metadata.MetadataReader, aliasingHost imports.AliasingHost) *MetadataDtsModuleScopeResolver {
	return &MetadataDtsModuleScopeResolver{
		dtsMetaReader: dtsMetaReader,
		aliasingHost:  aliasingHost,
		cache:         make(map[*reflection.Declaration]*ExportScope),
	}
}

// Resolve returns the export scope of the NgModule ref, or nil if ref is not an NgModule.
//
// The export scope only depends on the NgModule's exports. Directives and pipes the NgModule
// did not declare itself are re-exports, and are aliased when an aliasing host is configured.
// Exports that are neither a directive, a pipe nor an NgModule are dropped.
func (r *MetadataDtsModuleScopeResolver) Resolve(ref *imports.Reference) *ExportScope {
	clazz := ref.Node
	sourceFile := clazz.SourceFile
	if !sourceFile.IsDeclarationFile {
		panic(fmt.Sprintf("Assertion error: MetadataDtsModuleScopeResolver.Resolve(%s from %s), but not a .d.ts file", ref.DebugName(), sourceFile.FileName))
	}

	if cached, ok := r.cache[clazz]; ok {
		return cached
	}

	meta := r.dtsMetaReader.GetNgModuleMetadata(ref)
	if meta == nil {
		r.cache[clazz] = nil
		return nil
	}

	declarations := make(map[*reflection.Declaration]bool, len(meta.Declarations))
	for _, declRef := range meta.Declarations {
		declarations[declRef.Node] = true
	}

	var dependencies []metadata.Meta
	for _, exportRef := range meta.Exports {
		if directive := r.dtsMetaReader.GetDirectiveMetadata(exportRef); directive != nil {
			isReExport := !declarations[exportRef.Node]
			dependencies = append(dependencies, r.maybeAlias(directive, sourceFile, isReExport))
			continue
		}

		if pipe := r.dtsMetaReader.GetPipeMetadata(exportRef); pipe != nil {
			isReExport := !declarations[exportRef.Node]
			dependencies = append(dependencies, r.maybeAlias(pipe, sourceFile, isReExport))
			continue
		}

		if !exportRef.Node.SourceFile.IsDeclarationFile {
			continue
		}
		exportScope := r.Resolve(exportRef)
		if exportScope == nil {
			continue
		}
		if r.aliasingHost == nil {
			dependencies = append(dependencies, exportScope.Exported.Dependencies...)
			continue
		}
		for _, dep := range exportScope.Exported.Dependencies {
			dependencies = append(dependencies, r.maybeAlias(dep, sourceFile, true))
		}
	}

	exportScope := &ExportScope{
		Exported: ScopeData{Dependencies: dependencies, IsPoisoned: meta.IsPoisoned},
	}
	r.cache[clazz] = exportScope
	return exportScope
}

// maybeAlias returns dirOrPipe referred to through an alias exported by maybeAliasFrom, unless
// it is declared in that very file.
func (r *MetadataDtsModuleScopeResolver) maybeAlias(dirOrPipe metadata.Meta, maybeAliasFrom *reflection.SourceFile, isReExport bool) metadata.Meta {
	ref := dirOrPipe.GetRef()
	if r.aliasingHost == nil || ref.Node.SourceFile == maybeAliasFrom {
		return dirOrPipe
	}

	alias := r.aliasingHost.GetAliasIn(ref.Node, maybeAliasFrom, isReExport)
	if alias == nil {
		return dirOrPipe
	}
	return withRef(dirOrPipe, ref.CloneWithAlias(alias))
}

// withRef returns a copy of meta referring to its class through ref.
func withRef(meta metadata.Meta, ref *imports.Reference) metadata.Meta {
	switch m := meta.(type) {
	case *metadata.DirectiveMeta:
		return m.WithRef(ref)
	case *metadata.PipeMeta:
		return m.WithRef(ref)
	case *metadata.NgModuleMeta:
		copied := *m
		copied.Ref = ref
		return &copied
	default:
		panic(fmt.Sprintf("Assertion error: unexpected metadata %T", meta))
	}
}
