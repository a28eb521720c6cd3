package metadata_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/metadata"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
)

type testProgram struct {
	t    *testing.T
	host *reflection.StaticReflectionHost
	sf   *reflection.SourceFile
	reg  *metadata.LocalMetadataRegistry
}

func newTestProgram(t *testing.T) *testProgram {
	host := reflection.NewStaticReflectionHost()
	return &testProgram{
		t:    t,
		host: host,
		sf:   host.AddFile(reflection.NewSourceFile("/app/dirs.ts")),
		reg:  metadata.NewLocalMetadataRegistry(),
	}
}

func (p *testProgram) ref(name string) *imports.Reference {
	p.t.Helper()
	if decl := p.host.GetDeclaration(p.sf.FileName, name); decl != nil {
		return imports.NewReference(decl, nil)
	}
	decl, err := p.host.Declare(p.sf, name, reflection.DeclarationKindClass, true)
	if err != nil {
		p.t.Fatalf("declare %s: %v", name, err)
	}
	return imports.NewReference(decl, nil)
}

func (p *testProgram) directive(f metadata.DirectiveFields) *metadata.DirectiveMeta {
	meta := metadata.NewDirectiveMeta(f)
	p.reg.RegisterDirectiveMetadata(meta)
	return meta
}

func strPtr(s string) *string { return &s }

func TestClassPropertyMapping(t *testing.T) {
	t.Run("should map both ways", func(t *testing.T) {
		m := metadata.NewClassPropertyMapping(
			metadata.InputOrOutput{ClassPropertyName: "value", BindingPropertyName: "ngModel"},
			metadata.InputOrOutput{ClassPropertyName: "model", BindingPropertyName: "ngModel"},
			metadata.InputOrOutput{ClassPropertyName: "disabled", BindingPropertyName: "disabled"},
		)
		if !m.HasBindingPropertyName("ngModel") || m.HasBindingPropertyName("value") {
			t.Errorf("binding property lookup is wrong")
		}
		var classNames []string
		for _, entry := range m.GetByBindingPropertyName("ngModel") {
			classNames = append(classNames, entry.ClassPropertyName)
		}
		if diff := cmp.Diff([]string{"value", "model"}, classNames); diff != "" {
			t.Errorf("class properties mismatch (-want +got):\n%s", diff)
		}
		if got := m.GetByClassPropertyName("disabled"); got == nil || got.BindingPropertyName != "disabled" {
			t.Errorf("unexpected entry %v", got)
		}
		if diff := cmp.Diff([]string{"ngModel", "disabled"}, m.PropertyNames()); diff != "" {
			t.Errorf("property names mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should let later mappings override earlier ones when merging", func(t *testing.T) {
		base := metadata.NewClassPropertyMapping(
			metadata.InputOrOutput{ClassPropertyName: "a", BindingPropertyName: "a"},
			metadata.InputOrOutput{ClassPropertyName: "b", BindingPropertyName: "b"},
		)
		sub := metadata.NewClassPropertyMapping(metadata.InputOrOutput{ClassPropertyName: "a", BindingPropertyName: "aliasA"})
		merged := metadata.Merge(base, sub)
		if merged.HasBindingPropertyName("a") {
			t.Errorf("overridden binding name should be gone")
		}
		if diff := cmp.Diff([]string{"aliasA", "b"}, merged.PropertyNames()); diff != "" {
			t.Errorf("property names mismatch (-want +got):\n%s", diff)
		}
		if base.HasBindingPropertyName("aliasA") {
			t.Errorf("merge mutated its input")
		}
	})

	t.Run("should treat a nil mapping as empty", func(t *testing.T) {
		var m *metadata.ClassPropertyMapping
		if m.HasBindingPropertyName("x") || m.GetByClassPropertyName("x") != nil || m.Len() != 0 {
			t.Errorf("nil mapping should be empty")
		}
	})
}

func TestDirectiveMeta(t *testing.T) {
	p := newTestProgram(t)

	t.Run("should copy on WithRef", func(t *testing.T) {
		ref := p.ref("Dir")
		meta := metadata.NewDirectiveMeta(metadata.DirectiveFields{Ref: ref, Selector: strPtr("[dir]")})
		aliased := ref.CloneWithAlias(nil)
		copied := meta.WithRef(aliased)
		if meta.GetRef() != ref || copied.GetRef() != aliased {
			t.Errorf("WithRef must not mutate the original")
		}
		if *copied.Selector() != "[dir]" || copied.Name() != "Dir" {
			t.Errorf("WithRef lost metadata")
		}
		if copied.Inputs().HasBindingPropertyName("x") {
			t.Errorf("missing inputs should be empty")
		}
	})
}

func TestCompoundMetadataReader(t *testing.T) {
	p := newTestProgram(t)
	other := metadata.NewLocalMetadataRegistry()
	first := p.directive(metadata.DirectiveFields{Ref: p.ref("Dir"), Name: "first"})
	other.RegisterDirectiveMetadata(metadata.NewDirectiveMeta(metadata.DirectiveFields{Ref: p.ref("Dir"), Name: "second"}))
	pipe := &metadata.PipeMeta{Ref: p.ref("Pipe"), Name: "p"}
	other.RegisterPipeMetadata(pipe)

	reader := metadata.NewCompoundMetadataReader(p.reg, other)
	t.Run("should let the first reader win", func(t *testing.T) {
		if got := reader.GetDirectiveMetadata(p.ref("Dir")); got != first {
			t.Errorf("expected the first registry's metadata, got %v", got)
		}
	})
	t.Run("should fall back to later readers", func(t *testing.T) {
		if got := reader.GetPipeMetadata(p.ref("Pipe")); got != pipe {
			t.Errorf("expected the pipe of the second registry")
		}
		if reader.GetNgModuleMetadata(p.ref("Pipe")) != nil {
			t.Errorf("expected no NgModule metadata")
		}
	})

	t.Run("should register into every registry", func(t *testing.T) {
		a, b := metadata.NewLocalMetadataRegistry(), metadata.NewLocalMetadataRegistry()
		module := &metadata.NgModuleMeta{Ref: p.ref("Module")}
		metadata.NewCompoundMetadataRegistry(a, b).RegisterNgModuleMetadata(module)
		if a.GetNgModuleMetadata(p.ref("Module")) != module || b.GetNgModuleMetadata(p.ref("Module")) != module {
			t.Errorf("expected both registries to know the module")
		}
	})
}

func TestFlattenInheritedDirectiveMetadata(t *testing.T) {
	t.Run("should return directives without base class unchanged", func(t *testing.T) {
		p := newTestProgram(t)
		meta := p.directive(metadata.DirectiveFields{Ref: p.ref("Dir")})
		if got := metadata.FlattenInheritedDirectiveMetadata(p.reg, p.ref("Dir")); got != meta {
			t.Errorf("expected the same metadata")
		}
		if metadata.FlattenInheritedDirectiveMetadata(p.reg, p.ref("Unknown")) != nil {
			t.Errorf("expected nil for a class without metadata")
		}
	})

	t.Run("should merge the extends chain", func(t *testing.T) {
		p := newTestProgram(t)
		p.directive(metadata.DirectiveFields{
			Ref:                p.ref("Base"),
			Inputs:             metadata.FromDirectMapping("base", "shared"),
			Outputs:            metadata.FromDirectMapping("baseChange"),
			CoercedInputFields: []string{"base"},
			IsStructural:       true,
		})
		p.directive(metadata.DirectiveFields{
			Ref:       p.ref("Middle"),
			BaseClass: &metadata.BaseClass{Ref: p.ref("Base")},
			Inputs: metadata.NewClassPropertyMapping(
				metadata.InputOrOutput{ClassPropertyName: "shared", BindingPropertyName: "sharedAlias"},
			),
		})
		p.directive(metadata.DirectiveFields{
			Ref:                p.ref("Leaf"),
			Selector:           strPtr("[leaf]"),
			BaseClass:          &metadata.BaseClass{Ref: p.ref("Middle")},
			Inputs:             metadata.FromDirectMapping("leaf"),
			CoercedInputFields: []string{"leaf", "base"},
		})

		got := metadata.FlattenInheritedDirectiveMetadata(p.reg, p.ref("Leaf"))
		if diff := cmp.Diff([]string{"base", "sharedAlias", "leaf"}, got.InputMapping().PropertyNames()); diff != "" {
			t.Errorf("inputs mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"baseChange"}, got.OutputMapping().PropertyNames()); diff != "" {
			t.Errorf("outputs mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"base", "leaf"}, got.CoercedInputFields()); diff != "" {
			t.Errorf("coerced fields mismatch (-want +got):\n%s", diff)
		}
		if !got.IsStructural() || got.BaseClass() != nil || *got.Selector() != "[leaf]" {
			t.Errorf("unexpected flattened metadata: structural=%v base=%v", got.IsStructural(), got.BaseClass())
		}
	})

	t.Run("should mark unresolvable base classes as dynamic", func(t *testing.T) {
		p := newTestProgram(t)
		p.directive(metadata.DirectiveFields{Ref: p.ref("A"), BaseClass: &metadata.BaseClass{Ref: p.ref("NotADirective")}})
		p.directive(metadata.DirectiveFields{Ref: p.ref("B"), BaseClass: metadata.DynamicBaseClass, Inputs: metadata.FromDirectMapping("b")})
		for _, name := range []string{"A", "B"} {
			got := metadata.FlattenInheritedDirectiveMetadata(p.reg, p.ref(name))
			if got.BaseClass() == nil || !got.BaseClass().Dynamic {
				t.Errorf("expected %s to have a dynamic base class", name)
			}
		}
		if !metadata.FlattenInheritedDirectiveMetadata(p.reg, p.ref("B")).Inputs().HasBindingPropertyName("b") {
			t.Errorf("own inputs must survive a dynamic base class")
		}
	})
}

func TestHostDirectivesResolver(t *testing.T) {
	p := newTestProgram(t)
	p.directive(metadata.DirectiveFields{
		Ref:     p.ref("Inner"),
		Inputs:  metadata.FromDirectMapping("color"),
		Outputs: metadata.FromDirectMapping("colorChange"),
	})
	p.directive(metadata.DirectiveFields{
		Ref:     p.ref("Tooltip"),
		Inputs:  metadata.FromDirectMapping("message", "position"),
		Outputs: metadata.FromDirectMapping("shown"),
		HostDirectives: []metadata.HostDirectiveMeta{
			{Directive: p.ref("Inner"), Inputs: map[string]string{"color": "color"}},
		},
	})
	host := p.directive(metadata.DirectiveFields{
		Ref:      p.ref("Host"),
		Selector: strPtr("[host]"),
		HostDirectives: []metadata.HostDirectiveMeta{
			{Directive: p.ref("Tooltip"), Inputs: map[string]string{"message": "tooltip"}, Outputs: map[string]string{"shown": "shown"}},
		},
	})

	resolver := metadata.NewHostDirectivesResolver(p.reg)
	resolved := resolver.Resolve(host)

	t.Run("should resolve host directives innermost first", func(t *testing.T) {
		var names []string
		for _, meta := range resolved {
			names = append(names, meta.Name())
			if meta.MatchSource() != metadata.MatchSourceHostDirective {
				t.Errorf("%s should be matched as host directive", meta.Name())
			}
		}
		if diff := cmp.Diff([]string{"Inner", "Tooltip"}, names); diff != "" {
			t.Errorf("host directives mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should only expose the chosen inputs and outputs under their alias", func(t *testing.T) {
		tooltip := resolved[1]
		if diff := cmp.Diff([]string{"tooltip"}, tooltip.InputMapping().PropertyNames()); diff != "" {
			t.Errorf("inputs mismatch (-want +got):\n%s", diff)
		}
		if got := tooltip.InputMapping().GetByBindingPropertyName("tooltip"); len(got) != 1 || got[0].ClassPropertyName != "message" {
			t.Errorf("alias must keep the class property, got %v", got)
		}
		if diff := cmp.Diff([]string{"shown"}, tooltip.OutputMapping().PropertyNames()); diff != "" {
			t.Errorf("outputs mismatch (-want +got):\n%s", diff)
		}
		if resolved[0].OutputMapping().Len() != 0 {
			t.Errorf("outputs not exposed must be dropped")
		}
	})

	t.Run("should cache per directive class", func(t *testing.T) {
		again := resolver.Resolve(host)
		if len(again) != len(resolved) || again[0] != resolved[0] {
			t.Errorf("expected the cached result")
		}
	})
}
