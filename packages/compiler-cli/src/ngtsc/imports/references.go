package imports

import (
	"ngtsc-go/packages/compiler-cli/src/ngtsc/reflection"
	"ngtsc-go/packages/compiler/src/output"
)

// OwningModule is the module a reference was imported from, if known.
type OwningModule struct {
	// Specifier is the module specifier the declaration was imported through,
	// e.g. `@angular/common`.
	Specifier string
	// ResolutionContext is the file the specifier was resolved from.
	ResolutionContext string
}

// Reference is a reference to a declaration, together with the ways it can be referred to from
// other files.
//
// A Reference is immutable once shared: the Clone* methods return copies instead of mutating
// the receiver.
type Reference struct {
	Node *reflection.Declaration

	// BestGuessOwningModule is the module the declaration was imported from, for declarations
	// living in external libraries.
	BestGuessOwningModule *OwningModule

	// Alias is an expression that refers to the declaration through an alias export, if one
	// was created by an AliasingHost.
	Alias output.OutputExpression

	// Synthetic marks references invented by the compiler rather than written by the user.
	Synthetic bool

	identifiers []string
}

// NewReference creates a Reference to node
func NewReference(node *reflection.Declaration, bestGuessOwningModule *OwningModule) *Reference {
	ref := &Reference{Node: node, BestGuessOwningModule: bestGuessOwningModule}
	if node != nil {
		ref.identifiers = []string{node.Name}
	}
	return ref
}

// HasOwningModuleGuess reports whether the reference came from an external module.
func (r *Reference) HasOwningModuleGuess() bool {
	return r.BestGuessOwningModule != nil
}

// OwnedByModuleGuess returns the specifier of the owning module, or "".
func (r *Reference) OwnedByModuleGuess() string {
	if r.BestGuessOwningModule == nil {
		return ""
	}
	return r.BestGuessOwningModule.Specifier
}

// DebugName is the name of the referenced declaration
func (r *Reference) DebugName() string {
	if r.Node == nil {
		return "<unknown>"
	}
	return r.Node.Name
}

// AddIdentifier records a local identifier that also refers to the declaration.
func (r *Reference) AddIdentifier(identifier string) {
	r.identifiers = append(r.identifiers, identifier)
}

// GetIdentityIn returns an identifier referring to the declaration inside context, or "" when
// there is none.
func (r *Reference) GetIdentityIn(context *reflection.SourceFile) string {
	if r.Node != nil && r.Node.SourceFile == context && len(r.identifiers) > 0 {
		return r.identifiers[0]
	}
	return ""
}

// CloneWithAlias returns a copy of the reference that is emitted through alias.
func (r *Reference) CloneWithAlias(alias output.OutputExpression) *Reference {
	ref := r.clone()
	ref.Alias = alias
	return ref
}

// CloneWithNoIdentifiers returns a copy of the reference without local identifiers.
func (r *Reference) CloneWithNoIdentifiers() *Reference {
	ref := r.clone()
	ref.identifiers = nil
	return ref
}

func (r *Reference) clone() *Reference {
	ref := *r
	ref.identifiers = append([]string(nil), r.identifiers...)
	return &ref
}
