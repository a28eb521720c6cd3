package metadata

import "ngtsc-go/packages/compiler-cli/src/ngtsc/imports"

// FlattenInheritedDirectiveMetadata returns the metadata of a directive with everything it
// inherits through its `extends` chain merged in: inputs and outputs of a subclass override
// those of its parents. A base class that is dynamic or has no metadata makes the result's
// BaseClass dynamic. Returns nil if ref is not a directive.
func FlattenInheritedDirectiveMetadata(reader MetadataReader, ref *imports.Reference) *DirectiveMeta {
	topMeta := reader.GetDirectiveMetadata(ref)
	if topMeta == nil {
		return nil
	}
	if topMeta.BaseClass() == nil {
		return topMeta
	}

	var (
		inputs         = EmptyClassPropertyMapping()
		outputs        = EmptyClassPropertyMapping()
		coerced        = newStringSet()
		undeclared     = newStringSet()
		restricted     = newStringSet()
		stringLiteral  = newStringSet()
		hostDirectives []HostDirectiveMeta
		isDynamic      bool
		isStructural   bool
	)

	visited := make(map[*DirectiveMeta]bool)
	var addMetadata func(meta *DirectiveMeta)
	addMetadata = func(meta *DirectiveMeta) {
		if visited[meta] {
			// A class cannot extend itself; treat a cyclic chain as unknown.
			isDynamic = true
			return
		}
		visited[meta] = true

		if base := meta.BaseClass(); base != nil {
			if base.Dynamic || base.Ref == nil {
				isDynamic = true
			} else if baseMeta := reader.GetDirectiveMetadata(base.Ref); baseMeta != nil {
				addMetadata(baseMeta)
			} else {
				// Missing metadata for the base class means it cannot be inherited from.
				isDynamic = true
			}
		}

		isStructural = isStructural || meta.IsStructural()
		inputs = Merge(inputs, meta.InputMapping())
		outputs = Merge(outputs, meta.OutputMapping())
		coerced.addAll(meta.CoercedInputFields())
		undeclared.addAll(meta.UndeclaredInputFields())
		restricted.addAll(meta.RestrictedInputFields())
		stringLiteral.addAll(meta.StringLiteralInputFields())
		hostDirectives = append(hostDirectives, meta.HostDirectives()...)
	}
	addMetadata(topMeta)

	f := topMeta.Fields()
	f.Inputs = inputs
	f.Outputs = outputs
	f.CoercedInputFields = coerced.values
	f.UndeclaredInputFields = undeclared.values
	f.RestrictedInputFields = restricted.values
	f.StringLiteralInputFields = stringLiteral.values
	f.HostDirectives = hostDirectives
	f.IsStructural = isStructural
	f.BaseClass = nil
	if isDynamic {
		f.BaseClass = DynamicBaseClass
	}
	return NewDirectiveMeta(f)
}

type stringSet struct {
	seen   map[string]bool
	values []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]bool)}
}

func (s *stringSet) addAll(values []string) {
	for _, v := range values {
		if !s.seen[v] {
			s.seen[v] = true
			s.values = append(s.values, v)
		}
	}
}
