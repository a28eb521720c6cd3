package incremental

import (
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
	"ngtsc-go/packages/compiler/core"
)

// SnapshotScopeReader serves the scopes of a previous compilation. Recorded symbols are
// resolved against the declarations and metadata of the current compilation; a scope with a
// symbol that no longer resolves to metadata of the recorded kind is served poisoned.
type SnapshotScopeReader struct {
	host       reflection.ReflectionHost
	metaReader metadata.MetadataReader
	records    map[Symbol]*ComponentRecord
	cache      map[*reflection.Declaration]scope.ComponentScope
}

// NewSnapshotScopeReader creates a new SnapshotScopeReader
func NewSnapshotScopeReader(snapshot *ScopeSnapshot, host reflection.ReflectionHost, metaReader metadata.MetadataReader) *SnapshotScopeReader {
	records := make(map[Symbol]*ComponentRecord)
	if snapshot != nil {
		for i := range snapshot.Components {
			record := &snapshot.Components[i]
			records[record.Component] = record
		}
	}
	return &SnapshotScopeReader{
		host:       host,
		metaReader: metaReader,
		records:    records,
		cache:      make(map[*reflection.Declaration]scope.ComponentScope),
	}
}

func (r *SnapshotScopeReader) GetScopeForComponent(clazz *reflection.Declaration) scope.ComponentScope {
	if cached, ok := r.cache[clazz]; ok {
		return cached
	}
	record, ok := r.records[symbolOf(clazz)]
	if !ok {
		r.cache[clazz] = nil
		return nil
	}

	isPoisoned := record.IsPoisoned
	var deps []metadata.Meta
	for _, dep := range record.Dependencies {
		meta := r.resolveMeta(dep)
		if meta == nil {
			isPoisoned = true
			continue
		}
		deps = append(deps, meta)
	}
	var schemas []core.SchemaMetadata
	for _, name := range record.Schemas {
		schema, err := core.SchemaByName(name)
		if err != nil {
			isPoisoned = true
			continue
		}
		schemas = append(schemas, schema)
	}

	var result scope.ComponentScope
	switch {
	case scope.ComponentScopeKind(record.Kind) == scope.ComponentScopeKindStandalone:
		result = &scope.StandaloneScope{Component: clazz, Dependencies: deps, IsPoisoned: isPoisoned, Schemas: schemas}
	case record.NgModule != nil && r.resolve(*record.NgModule) != nil:
		result = &scope.LocalModuleScope{
			NgModule:    r.resolve(*record.NgModule),
			Compilation: scope.ScopeData{Dependencies: deps, IsPoisoned: isPoisoned},
			Schemas:     schemas,
		}
	}
	r.cache[clazz] = result
	return result
}

func (r *SnapshotScopeReader) GetRemoteScope(clazz *reflection.Declaration) *scope.RemoteScope {
	record, ok := r.records[symbolOf(clazz)]
	if !ok || record.Remote == nil {
		return nil
	}
	directives, ok := r.resolveAll(record.Remote.Directives)
	if !ok {
		return nil
	}
	pipes, ok := r.resolveAll(record.Remote.Pipes)
	if !ok {
		return nil
	}
	return &scope.RemoteScope{Directives: directives, Pipes: pipes}
}

func (r *SnapshotScopeReader) resolve(symbol Symbol) *reflection.Declaration {
	return r.host.GetDeclaration(symbol.File, symbol.Name)
}

func (r *SnapshotScopeReader) resolveAll(symbols []Symbol) ([]*imports.Reference, bool) {
	refs := make([]*imports.Reference, 0, len(symbols))
	for _, symbol := range symbols {
		decl := r.resolve(symbol)
		if decl == nil {
			return nil, false
		}
		refs = append(refs, imports.NewReference(decl, nil))
	}
	return refs, true
}

func (r *SnapshotScopeReader) resolveMeta(dep DependencyRecord) metadata.Meta {
	decl := r.resolve(dep.Symbol)
	if decl == nil {
		return nil
	}
	ref := imports.NewReference(decl, nil)
	switch metadata.MetaKind(dep.Kind) {
	case metadata.MetaKindDirective:
		if meta := r.metaReader.GetDirectiveMetadata(ref); meta != nil {
			return meta
		}
	case metadata.MetaKindPipe:
		if meta := r.metaReader.GetPipeMetadata(ref); meta != nil {
			return meta
		}
	case metadata.MetaKindNgModule:
		if meta := r.metaReader.GetNgModuleMetadata(ref); meta != nil {
			return meta
		}
	}
	return nil
}
