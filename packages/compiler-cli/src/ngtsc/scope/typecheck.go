package scope

import (
	"fmt"
	"sort"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler/core"
	"ngtsc-go/packages/compiler/src/css"
	"ngtsc-go/packages/compiler/src/render3/view"
)

// TypeCheckScope is the scope a component template is type-checked in.
type TypeCheckScope struct {
	// Matcher matches template nodes against the directives in scope. Each selector is
	// registered with the host directives of its directive first.
	Matcher *view.DirectiveMatcher
	// Directives lists the directives in scope, with their inherited metadata.
	Directives []*metadata.DirectiveMeta
	// Pipes maps pipe names to the pipe they refer to.
	Pipes      map[string]*metadata.PipeMeta
	Schemas    []core.SchemaMetadata
	IsPoisoned bool
}

// PipeNames returns the names of the pipes in scope, sorted
func (s *TypeCheckScope) PipeNames() []string {
	names := make([]string, 0, len(s.Pipes))
	for name := range s.Pipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeCheckScopeRegistry computes and caches the type-check scopes of components.
//
// Scopes are cached per NgModule, or per component for standalone components, and the
// flattened metadata of directives per directive class. Neither cache is ever invalidated: a
// registry lives as long as a single compilation.
type TypeCheckScopeRegistry struct {
	scopeReader            ComponentScopeReader
	metaReader             metadata.MetadataReader
	hostDirectivesResolver *metadata.HostDirectivesResolver

	flattenedDirectiveMetaCache map[*reflection.Declaration]*metadata.DirectiveMeta
	scopeCache                  map[*reflection.Declaration]*TypeCheckScope
}

// NewTypeCheckScopeRegistry creates a new TypeCheckScopeRegistry
func NewTypeCheckScopeRegistry(scopeReader ComponentScopeReader, metaReader metadata.MetadataReader, hostDirectivesResolver *metadata.HostDirectivesResolver) *TypeCheckScopeRegistry {
	return &TypeCheckScopeRegistry{
		scopeReader:                 scopeReader,
		metaReader:                  metaReader,
		hostDirectivesResolver:      hostDirectivesResolver,
		flattenedDirectiveMetaCache: make(map[*reflection.Declaration]*metadata.DirectiveMeta),
		scopeCache:                  make(map[*reflection.Declaration]*TypeCheckScope),
	}
}

// GetTypeCheckScope returns the type-check scope of a component. A component without scope
// gets an empty, non-poisoned scope.
func (r *TypeCheckScopeRegistry) GetTypeCheckScope(node *reflection.Declaration) *TypeCheckScope {
	componentScope := r.scopeReader.GetScopeForComponent(node)
	if componentScope == nil {
		return &TypeCheckScope{
			Matcher: css.NewSelectorMatcher[[]view.DirectiveMeta](),
			Pipes:   make(map[string]*metadata.PipeMeta),
		}
	}

	var (
		cacheKey     *reflection.Declaration
		dependencies []metadata.Meta
		isPoisoned   bool
	)
	switch s := componentScope.(type) {
	case *StandaloneScope:
		cacheKey = node
		dependencies = s.Dependencies
		isPoisoned = s.IsPoisoned
	case *LocalModuleScope:
		cacheKey = s.NgModule
		dependencies = s.Compilation.Dependencies
		isPoisoned = s.Compilation.IsPoisoned || s.Exported.IsPoisoned
	default:
		panic(fmt.Sprintf("Assertion error: unexpected component scope %T", componentScope))
	}

	if cached, ok := r.scopeCache[cacheKey]; ok {
		return cached
	}

	matcher := css.NewSelectorMatcher[[]view.DirectiveMeta]()
	var directives []*metadata.DirectiveMeta
	pipes := make(map[string]*metadata.PipeMeta)

	for _, meta := range dependencies {
		switch dep := meta.(type) {
		case *metadata.DirectiveMeta:
			if dep.Selector() == nil {
				continue
			}
			extMeta := r.GetTypeCheckDirectiveMetadata(dep.GetRef())
			if extMeta == nil {
				continue
			}
			var matched []view.DirectiveMeta
			for _, hostDirective := range r.hostDirectivesResolver.Resolve(extMeta) {
				matched = append(matched, hostDirective)
			}
			matched = append(matched, extMeta)
			matcher.AddSelectables(css.MustParseCssSelector(*dep.Selector()), &matched)
			directives = append(directives, extMeta)
		case *metadata.PipeMeta:
			if !dep.Ref.Node.IsClass() {
				panic(fmt.Sprintf("Assertion error: unexpected non-class declaration %s for pipe %s", dep.Ref.Node, dep.Name))
			}
			pipes[dep.Name] = dep
		}
	}

	typeCheckScope := &TypeCheckScope{
		Matcher:    matcher,
		Directives: directives,
		Pipes:      pipes,
		Schemas:    componentScope.GetSchemas(),
		IsPoisoned: isPoisoned,
	}
	r.scopeCache[cacheKey] = typeCheckScope
	return typeCheckScope
}

// GetTypeCheckDirectiveMetadata returns the metadata of a directive with its inherited
// metadata merged in, or nil if ref is not a directive.
func (r *TypeCheckScopeRegistry) GetTypeCheckDirectiveMetadata(ref *imports.Reference) *metadata.DirectiveMeta {
	clazz := ref.Node
	if cached, ok := r.flattenedDirectiveMetaCache[clazz]; ok {
		return cached
	}
	meta := metadata.FlattenInheritedDirectiveMetadata(r.metaReader, ref)
	if meta == nil {
		return nil
	}
	r.flattenedDirectiveMetaCache[clazz] = meta
	return meta
}
