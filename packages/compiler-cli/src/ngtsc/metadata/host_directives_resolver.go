package metadata

import (
	"sort"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
)

// HostDirectivesResolver resolves the host directives of a directive, including the host
// directives of its host directives, into the metadata they match with.
type HostDirectivesResolver struct {
	metaReader MetadataReader
	cache      map[*reflection.Declaration][]*DirectiveMeta
}

// NewHostDirectivesResolver creates a new HostDirectivesResolver
func NewHostDirectivesResolver(metaReader MetadataReader) *HostDirectivesResolver {
	return &HostDirectivesResolver{
		metaReader: metaReader,
		cache:      make(map[*reflection.Declaration][]*DirectiveMeta),
	}
}

// Resolve returns the host directives applied by directive, innermost first. Each result has
// MatchSourceHostDirective and only exposes the inputs and outputs the host chose to expose,
// under their exposed names.
func (r *HostDirectivesResolver) Resolve(directive *DirectiveMeta) []*DirectiveMeta {
	clazz := directive.GetRef().Node
	if cached, ok := r.cache[clazz]; ok {
		return cached
	}
	results := r.walkHostDirectives(directive.HostDirectives(), nil, map[*reflection.Declaration]bool{clazz: true})
	r.cache[clazz] = results
	return results
}

func (r *HostDirectivesResolver) walkHostDirectives(directives []HostDirectiveMeta, results []*DirectiveMeta, seen map[*reflection.Declaration]bool) []*DirectiveMeta {
	for _, current := range directives {
		if current.Directive == nil || current.Directive.Node == nil || !current.Directive.Node.IsClass() {
			continue
		}
		if seen[current.Directive.Node] {
			continue
		}
		hostMeta := FlattenInheritedDirectiveMetadata(r.metaReader, current.Directive)
		if hostMeta == nil {
			continue
		}
		seen[current.Directive.Node] = true
		if len(hostMeta.HostDirectives()) > 0 {
			results = r.walkHostDirectives(hostMeta.HostDirectives(), results, seen)
		}

		f := hostMeta.Fields()
		f.MatchSource = MatchSourceHostDirective
		f.Inputs = filterMappings(hostMeta.InputMapping(), current.Inputs)
		f.Outputs = filterMappings(hostMeta.OutputMapping(), current.Outputs)
		results = append(results, NewDirectiveMeta(f))
	}
	return results
}

// filterMappings keeps the entries of source exposed by allowed, rebinding them under their
// exposed name.
func filterMappings(source *ClassPropertyMapping, allowed map[string]string) *ClassPropertyMapping {
	publicNames := make([]string, 0, len(allowed))
	for publicName := range allowed {
		publicNames = append(publicNames, publicName)
	}
	sort.Strings(publicNames)

	var entries []InputOrOutput
	for _, publicName := range publicNames {
		for _, binding := range source.GetByBindingPropertyName(publicName) {
			binding.BindingPropertyName = allowed[publicName]
			entries = append(entries, binding)
		}
	}
	return NewClassPropertyMapping(entries...)
}
