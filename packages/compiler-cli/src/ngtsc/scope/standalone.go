package scope

import (
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
)

// LocalModuleScopeReader reads the scopes of NgModules under compilation.
type LocalModuleScopeReader interface {
	GetScopeOfModule(clazz *reflection.Declaration) *LocalModuleScope
}

// StandaloneComponentScopeReader computes the scope of standalone components from their
// imports.
type StandaloneComponentScopeReader struct {
	metaReader        metadata.MetadataReader
	localModuleReader LocalModuleScopeReader
	dtsModuleReader   DtsModuleScopeResolver
	cache             map[*reflection.Declaration]*StandaloneScope
}

// NewStandaloneComponentScopeReader creates a new StandaloneComponentScopeReader
func NewStandaloneComponentScopeReader(metaReader metadata.MetadataReader, localModuleReader LocalModuleScopeReader, dtsModuleReader DtsModuleScopeResolver) *StandaloneComponentScopeReader {
	return &StandaloneComponentScopeReader{
		metaReader:        metaReader,
		localModuleReader: localModuleReader,
		dtsModuleReader:   dtsModuleReader,
		cache:             make(map[*reflection.Declaration]*StandaloneScope),
	}
}

// GetScopeForComponent returns the scope of a standalone component, or nil for any other
// class.
//
// The component itself comes first. Each imported directive, pipe and NgModule follows, then
// the exports of imported NgModules, each class only once. Importing something that is not
// standalone, or that resolves to nothing, poisons the scope.
func (r *StandaloneComponentScopeReader) GetScopeForComponent(clazz *reflection.Declaration) ComponentScope {
	if s := r.getScope(clazz); s != nil {
		return s
	}
	return nil
}

func (r *StandaloneComponentScopeReader) getScope(clazz *reflection.Declaration) *StandaloneScope {
	if cached, ok := r.cache[clazz]; ok {
		return cached
	}

	clazzMeta := r.metaReader.GetDirectiveMetadata(imports.NewReference(clazz, nil))
	if clazzMeta == nil || !clazzMeta.IsComponent() || !clazzMeta.IsStandalone() {
		r.cache[clazz] = nil
		return nil
	}

	dependencies := []metadata.Meta{clazzMeta}
	seen := map[*reflection.Declaration]bool{clazz: true}
	isPoisoned := clazzMeta.IsPoisoned()

	for _, ref := range clazzMeta.Imports() {
		if seen[ref.Node] {
			continue
		}
		seen[ref.Node] = true

		if dirMeta := r.metaReader.GetDirectiveMetadata(ref); dirMeta != nil {
			dependencies = append(dependencies, dirMeta.WithRef(ref))
			isPoisoned = isPoisoned || dirMeta.IsPoisoned() || !dirMeta.IsStandalone()
			continue
		}

		if pipeMeta := r.metaReader.GetPipeMetadata(ref); pipeMeta != nil {
			dependencies = append(dependencies, pipeMeta.WithRef(ref))
			isPoisoned = isPoisoned || !pipeMeta.IsStandalone
			continue
		}

		if ngModuleMeta := r.metaReader.GetNgModuleMetadata(ref); ngModuleMeta != nil {
			dependencies = append(dependencies, withRef(ngModuleMeta, ref))

			var exported *ScopeData
			if ref.Node.SourceFile.IsDeclarationFile {
				if exportScope := r.dtsModuleReader.Resolve(ref); exportScope != nil {
					exported = &exportScope.Exported
				}
			} else if localScope := r.localModuleReader.GetScopeOfModule(ref.Node); localScope != nil {
				exported = &localScope.Exported
			}
			if exported == nil {
				// An NgModule without a scope cannot be trusted.
				isPoisoned = true
				continue
			}

			isPoisoned = isPoisoned || exported.IsPoisoned
			for _, dep := range exported.Dependencies {
				if !seen[dep.GetRef().Node] {
					seen[dep.GetRef().Node] = true
					dependencies = append(dependencies, dep)
				}
			}
			continue
		}

		// Neither a directive, a pipe nor an NgModule.
		isPoisoned = true
	}

	s := &StandaloneScope{
		Component:    clazz,
		Dependencies: dependencies,
		IsPoisoned:   isPoisoned,
		Schemas:      clazzMeta.Schemas(),
	}
	r.cache[clazz] = s
	return s
}

// GetRemoteScope is always nil: standalone components set their own scope.
func (r *StandaloneComponentScopeReader) GetRemoteScope(*reflection.Declaration) *RemoteScope {
	return nil
}
