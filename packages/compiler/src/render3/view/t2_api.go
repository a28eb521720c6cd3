package view

import (
	"ngtsc-go/packages/compiler/src/css"
	"ngtsc-go/packages/compiler/src/expression_parser"
	"ngtsc-go/packages/compiler/src/render3"
)

/*
 * t2 analyzes a template enough to know which directives apply to which nodes, what each
 * binding and reference resolves to, and which template-local symbols are visible where.
 * The template type-checker and the dependency tracking of a component consume it.
 */

// Target is a logical target for analysis. A nil Template is valid and binds to nothing.
type Target struct {
	Template []render3.Node
}

// TemplateEntity is a template-local symbol: *render3.Reference or *render3.Variable.
type TemplateEntity interface {
	render3.Node
}

// DirectiveOwner is a node directives can match on: *render3.Element or *render3.Template.
type DirectiveOwner interface {
	render3.Node
}

// IsDirectiveOwner checks if a node can host directives
func IsDirectiveOwner(node render3.Node) bool {
	switch node.(type) {
	case *render3.Element, *render3.Template:
		return true
	default:
		return false
	}
}

// ReferenceTarget is what a `#ref` resolves to: a *ReferenceTargetWithDirective, a
// *ReferenceTargetElement or a *ReferenceTargetTemplate.
type ReferenceTarget interface {
	isReferenceTarget()
}

// ReferenceTargetWithDirective is a reference to a directive instance on a node
type ReferenceTargetWithDirective struct {
	Directive DirectiveMeta
	Node      DirectiveOwner
}

func (r *ReferenceTargetWithDirective) isReferenceTarget() {}

// ReferenceTargetElement is a reference to a plain element
type ReferenceTargetElement struct {
	Element *render3.Element
}

func (r *ReferenceTargetElement) isReferenceTarget() {}

// ReferenceTargetTemplate is a reference to an `<ng-template>`
type ReferenceTargetTemplate struct {
	Template *render3.Template
}

func (r *ReferenceTargetTemplate) isReferenceTarget() {}

// InputOutputPropertySet can indicate whether a given property name is present or not.
//
// This is used to represent the set of inputs or outputs present on a directive, and allows
// the binder to query for the presence of a mapping for property names.
type InputOutputPropertySet interface {
	HasBindingPropertyName(propertyName string) bool
}

// LegacyAnimationTriggerNames captures the animation trigger names that are statically
// resolvable and whether some names could not be statically evaluated.
type LegacyAnimationTriggerNames struct {
	IncludesDynamicAnimations bool
	StaticTriggerNames        []string
}

// DirectiveMeta is the metadata of a directive needed to match it against template elements.
// This is provided by a consumer of the t2 APIs.
type DirectiveMeta interface {
	// Name returns the name of the directive class (used for debugging).
	Name() string

	// Selector returns the selector for the directive or nil if there isn't one.
	Selector() *string

	// IsComponent returns whether the directive is a component.
	IsComponent() bool

	// Inputs returns the set of inputs which this directive claims.
	Inputs() InputOutputPropertySet

	// Outputs returns the set of outputs which this directive claims.
	Outputs() InputOutputPropertySet

	// ExportAs returns the names under which the directive is exported, if any.
	ExportAs() []string

	// IsStructural returns whether the directive is a structural directive (e.g. `<div *ngIf></div>`).
	IsStructural() bool

	// NgContentSelectors returns, if the directive is a component, the selectors of its
	// `ng-content` elements.
	NgContentSelectors() []string

	// PreserveWhitespaces returns whether the template of the component preserves whitespaces.
	PreserveWhitespaces() bool

	// AnimationTriggerNames returns the legacy animation trigger names of a component.
	AnimationTriggerNames() *LegacyAnimationTriggerNames
}

// DirectiveMatcher matches template nodes against directive selectors. Each selector list
// is registered with every directive it brings along (host directives first).
type DirectiveMatcher = css.SelectorMatcher[[]DirectiveMeta]

// TargetBinder processes a template and returns an object similar to a type checker.
type TargetBinder interface {
	Bind(target *Target) BoundTarget
}

// BoundTarget is the result of performing the binding operation against a Target.
//
// The original Target is accessible, as well as a suite of methods for extracting binding
// information regarding it.
type BoundTarget interface {
	// Target returns the original Target that was bound.
	Target() *Target

	// GetDirectivesOfNode returns the directives matched on an Element or Template, in
	// selector registration order. The slice is non-nil (possibly empty) for every such node
	// of the target and nil for any other node.
	GetDirectivesOfNode(node render3.Node) []DirectiveMeta

	// GetReferenceTarget returns what a Reference points to, or nil.
	GetReferenceTarget(ref *render3.Reference) ReferenceTarget

	// GetConsumerOfBinding returns the DirectiveMeta claiming a *BoundAttribute, *BoundEvent
	// or *TextAttribute, otherwise the node carrying it. Returns nil for unknown bindings.
	GetConsumerOfBinding(binding render3.Node) interface{}

	// GetExpressionTarget returns the Reference or Variable an expression reads or writes, or
	// nil. Only property reads and writes on the implicit receiver resolve.
	GetExpressionTarget(expr expression_parser.AST) TemplateEntity

	// GetTemplateOfSymbol returns the Template declaring a Variable (always non-nil for a
	// variable of the target), or the Template enclosing a Reference (nil at top level).
	GetTemplateOfSymbol(symbol TemplateEntity) *render3.Template

	// GetNestingLevel returns the nesting depth of a Template, starting at 1 for top-level
	// templates.
	GetNestingLevel(template *render3.Template) int

	// GetEntitiesInTemplateScope returns every Reference and Variable visible inside the given
	// Template, or at the top level when template is nil.
	GetEntitiesInTemplateScope(template *render3.Template) []TemplateEntity

	// GetUsedDirectives returns every directive matched anywhere in the target, without
	// duplicates, in order of first use.
	GetUsedDirectives() []DirectiveMeta

	// GetUsedPipes returns the name of every pipe used in the target, without duplicates,
	// in order of first use.
	GetUsedPipes() []string
}
