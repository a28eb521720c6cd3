package metadata

import (
	"ngtsc-go/packages/compiler-cli/src/ngtsc/imports"
	"ngtsc-go/packages/compiler/core"
	"ngtsc-go/packages/compiler/src/render3/view"
)

// MetaKind disambiguates the kinds of Meta
type MetaKind int

const (
	MetaKindDirective MetaKind = iota
	MetaKindPipe
	MetaKindNgModule
)

func (k MetaKind) String() string {
	switch k {
	case MetaKindDirective:
		return "directive"
	case MetaKindPipe:
		return "pipe"
	default:
		return "ngmodule"
	}
}

// Meta is the metadata of a directive, pipe or NgModule: *DirectiveMeta, *PipeMeta or
// *NgModuleMeta.
type Meta interface {
	Kind() MetaKind
	GetRef() *imports.Reference
}

// MatchSource tells how a directive came to match a node
type MatchSource int

const (
	// MatchSourceSelector is a directive matched through its own selector
	MatchSourceSelector MatchSource = iota
	// MatchSourceHostDirective is a directive applied as host directive of another one
	MatchSourceHostDirective
)

// BaseClass is the class a directive extends. A nil *BaseClass means the directive extends
// nothing; Dynamic means the base class could not be statically resolved.
type BaseClass struct {
	Ref     *imports.Reference
	Dynamic bool
}

// DynamicBaseClass is the BaseClass of directives whose parent is not statically known
var DynamicBaseClass = &BaseClass{Dynamic: true}

// HostDirectiveMeta is a host directive applied by a directive. Inputs and Outputs map the
// public name on the host directive to the name it is exposed under; nil exposes nothing.
type HostDirectiveMeta struct {
	Directive          *imports.Reference
	IsForwardReference bool
	Inputs             map[string]string
	Outputs            map[string]string
}

// DirectiveFields holds the metadata of a directive. It is the building block of a
// DirectiveMeta, which is read-only once created.
type DirectiveFields struct {
	Ref                   *imports.Reference
	Name                  string
	Selector              *string
	IsComponent           bool
	IsStandalone          bool
	IsStructural          bool
	IsSignal              bool
	Inputs                *ClassPropertyMapping
	Outputs               *ClassPropertyMapping
	ExportAs              []string
	AnimationTriggerNames *view.LegacyAnimationTriggerNames
	BaseClass             *BaseClass
	HostDirectives        []HostDirectiveMeta
	// Imports are the raw imports of a standalone component.
	Imports []*imports.Reference
	// RawImports is the imports expression as written, for diagnostics.
	RawImports               string
	Schemas                  []core.SchemaMetadata
	IsPoisoned               bool
	CoercedInputFields       []string
	UndeclaredInputFields    []string
	RestrictedInputFields    []string
	StringLiteralInputFields []string
	NgContentSelectors       []string
	PreserveWhitespaces      bool
	MatchSource              MatchSource
}

// DirectiveMeta is the metadata of a directive or component. It implements view.DirectiveMeta
// so it can be matched by the template binder.
type DirectiveMeta struct {
	f DirectiveFields
}

// NewDirectiveMeta creates a DirectiveMeta. Missing input and output mappings become empty
// mappings.
func NewDirectiveMeta(fields DirectiveFields) *DirectiveMeta {
	if fields.Inputs == nil {
		fields.Inputs = EmptyClassPropertyMapping()
	}
	if fields.Outputs == nil {
		fields.Outputs = EmptyClassPropertyMapping()
	}
	if fields.Name == "" && fields.Ref != nil {
		fields.Name = fields.Ref.DebugName()
	}
	return &DirectiveMeta{f: fields}
}

// Fields returns a copy of the metadata, to derive a new DirectiveMeta from.
func (m *DirectiveMeta) Fields() DirectiveFields {
	return m.f
}

// WithRef returns a copy of the metadata referring to the directive through ref.
func (m *DirectiveMeta) WithRef(ref *imports.Reference) *DirectiveMeta {
	f := m.f
	f.Ref = ref
	return &DirectiveMeta{f: f}
}

func (m *DirectiveMeta) Kind() MetaKind             { return MetaKindDirective }
func (m *DirectiveMeta) GetRef() *imports.Reference { return m.f.Ref }

func (m *DirectiveMeta) Name() string                         { return m.f.Name }
func (m *DirectiveMeta) Selector() *string                    { return m.f.Selector }
func (m *DirectiveMeta) IsComponent() bool                    { return m.f.IsComponent }
func (m *DirectiveMeta) IsStandalone() bool                   { return m.f.IsStandalone }
func (m *DirectiveMeta) IsStructural() bool                   { return m.f.IsStructural }
func (m *DirectiveMeta) IsSignal() bool                       { return m.f.IsSignal }
func (m *DirectiveMeta) Inputs() view.InputOutputPropertySet  { return m.f.Inputs }
func (m *DirectiveMeta) Outputs() view.InputOutputPropertySet { return m.f.Outputs }
func (m *DirectiveMeta) InputMapping() *ClassPropertyMapping  { return m.f.Inputs }
func (m *DirectiveMeta) OutputMapping() *ClassPropertyMapping { return m.f.Outputs }
func (m *DirectiveMeta) ExportAs() []string                   { return m.f.ExportAs }
func (m *DirectiveMeta) BaseClass() *BaseClass                { return m.f.BaseClass }
func (m *DirectiveMeta) HostDirectives() []HostDirectiveMeta  { return m.f.HostDirectives }
func (m *DirectiveMeta) Imports() []*imports.Reference        { return m.f.Imports }
func (m *DirectiveMeta) RawImports() string                   { return m.f.RawImports }
func (m *DirectiveMeta) Schemas() []core.SchemaMetadata       { return m.f.Schemas }
func (m *DirectiveMeta) IsPoisoned() bool                     { return m.f.IsPoisoned }
func (m *DirectiveMeta) NgContentSelectors() []string         { return m.f.NgContentSelectors }
func (m *DirectiveMeta) PreserveWhitespaces() bool            { return m.f.PreserveWhitespaces }
func (m *DirectiveMeta) MatchSource() MatchSource             { return m.f.MatchSource }
func (m *DirectiveMeta) CoercedInputFields() []string         { return m.f.CoercedInputFields }
func (m *DirectiveMeta) UndeclaredInputFields() []string      { return m.f.UndeclaredInputFields }
func (m *DirectiveMeta) RestrictedInputFields() []string      { return m.f.RestrictedInputFields }
func (m *DirectiveMeta) StringLiteralInputFields() []string   { return m.f.StringLiteralInputFields }

func (m *DirectiveMeta) AnimationTriggerNames() *view.LegacyAnimationTriggerNames {
	return m.f.AnimationTriggerNames
}

// PipeMeta is the metadata of a pipe
type PipeMeta struct {
	Ref          *imports.Reference
	Name         string
	IsStandalone bool
	IsPure       bool
}

func (m *PipeMeta) Kind() MetaKind             { return MetaKindPipe }
func (m *PipeMeta) GetRef() *imports.Reference { return m.Ref }

// WithRef returns a copy of the metadata referring to the pipe through ref.
func (m *PipeMeta) WithRef(ref *imports.Reference) *PipeMeta {
	copied := *m
	copied.Ref = ref
	return &copied
}

// NgModuleMeta is the metadata of an NgModule
type NgModuleMeta struct {
	Ref          *imports.Reference
	Declarations []*imports.Reference
	Imports      []*imports.Reference
	Exports      []*imports.Reference
	Schemas      []core.SchemaMetadata
	// IsPoisoned marks modules whose metadata had errors.
	IsPoisoned bool
	// The raw expressions as written, for diagnostics.
	RawDeclarations string
	RawImports      string
	RawExports      string
}

func (m *NgModuleMeta) Kind() MetaKind             { return MetaKindNgModule }
func (m *NgModuleMeta) GetRef() *imports.Reference { return m.Ref }

// MetadataReader reads directive, pipe and NgModule metadata by class reference. Each method
// returns nil when the class is not of that kind.
type MetadataReader interface {
	GetDirectiveMetadata(ref *imports.Reference) *DirectiveMeta
	GetPipeMetadata(ref *imports.Reference) *PipeMeta
	GetNgModuleMetadata(ref *imports.Reference) *NgModuleMeta
}

// MetadataRegistry records metadata as classes are analysed.
type MetadataRegistry interface {
	RegisterDirectiveMetadata(meta *DirectiveMeta)
	RegisterPipeMetadata(meta *PipeMeta)
	RegisterNgModuleMetadata(meta *NgModuleMeta)
}
