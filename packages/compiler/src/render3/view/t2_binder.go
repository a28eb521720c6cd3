package view

import (
	"fmt"
	"strings"

	"ngtsc-go/packages/compiler/src/css"
	"ngtsc-go/packages/compiler/src/expression_parser"
	"ngtsc-go/packages/compiler/src/render3"
)

// BindingsMap maps a binding node (BoundAttribute, BoundEvent or TextAttribute) to the
// DirectiveMeta or node consuming it.
type BindingsMap map[render3.Node]interface{}

// ReferenceMap maps a reference to its target.
type ReferenceMap map[*render3.Reference]ReferenceTarget

// MatchedDirectives maps an Element or Template to the directives matched on it.
type MatchedDirectives map[render3.Node][]DirectiveMeta

// MatchingDirectivesAndPipes is the result of FindMatchingDirectivesAndPipes.
type MatchingDirectivesAndPipes struct {
	Directives []string
	Pipes      []string
}

// FindMatchingDirectivesAndPipes binds a template against one fake directive per selector and
// reports which selectors matched any node and which pipes the template uses, in order of first
// use.
func FindMatchingDirectivesAndPipes(template []render3.Node, directiveSelectors []string) (*MatchingDirectivesAndPipes, error) {
	matcher := css.NewSelectorMatcher[[]DirectiveMeta]()
	for _, selector := range directiveSelectors {
		parsed, err := css.ParseCssSelector(selector)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
		}
		// The binder asks every directive about its inputs and outputs, so the fake needs
		// empty sets rather than nil ones.
		fake := []DirectiveMeta{&selectorOnlyDirective{selector: selector}}
		matcher.AddSelectables(parsed, &fake)
	}

	bound := NewR3TargetBinder(matcher).Bind(&Target{Template: template})
	result := &MatchingDirectivesAndPipes{Pipes: bound.GetUsedPipes()}
	for _, dir := range bound.GetUsedDirectives() {
		result.Directives = append(result.Directives, *dir.Selector())
	}
	return result, nil
}

type selectorOnlyDirective struct {
	selector string
}

type emptyPropertySet struct{}

func (emptyPropertySet) HasBindingPropertyName(string) bool { return false }

func (f *selectorOnlyDirective) Name() string                    { return f.selector }
func (f *selectorOnlyDirective) Selector() *string               { return &f.selector }
func (f *selectorOnlyDirective) IsComponent() bool               { return false }
func (f *selectorOnlyDirective) Inputs() InputOutputPropertySet  { return emptyPropertySet{} }
func (f *selectorOnlyDirective) Outputs() InputOutputPropertySet { return emptyPropertySet{} }
func (f *selectorOnlyDirective) ExportAs() []string              { return nil }
func (f *selectorOnlyDirective) IsStructural() bool              { return false }
func (f *selectorOnlyDirective) NgContentSelectors() []string    { return nil }
func (f *selectorOnlyDirective) PreserveWhitespaces() bool       { return false }
func (f *selectorOnlyDirective) AnimationTriggerNames() *LegacyAnimationTriggerNames {
	return nil
}

// R3TargetBinder processes Targets with a given set of directives and performs a binding
// operation, which returns an object similar to a type checker that contains knowledge about
// the target.
type R3TargetBinder struct {
	directiveMatcher *DirectiveMatcher
}

// NewR3TargetBinder creates a new R3TargetBinder
func NewR3TargetBinder(directiveMatcher *DirectiveMatcher) *R3TargetBinder {
	return &R3TargetBinder{directiveMatcher: directiveMatcher}
}

// Bind performs a binding operation on the given Target and returns a BoundTarget which
// contains metadata about the types referenced in the template. Binding never fails: nodes
// without matches get empty directive lists.
func (b *R3TargetBinder) Bind(target *Target) BoundTarget {
	bound := &R3BoundTarget{
		target:       target,
		directives:   make(MatchedDirectives),
		bindings:     make(BindingsMap),
		references:   make(ReferenceMap),
		exprTargets:  make(map[expression_parser.AST]TemplateEntity),
		symbols:      make(map[TemplateEntity]*render3.Template),
		nestingLevel: make(map[*render3.Template]int),
		entities:     make(map[*render3.Template][]TemplateEntity),
	}
	if target == nil || target.Template == nil {
		return bound
	}

	// First, parse the template into a Scope structure. This captures the syntactic scopes of
	// the template and makes them available for later use.
	scope := newScope(nil, nil)
	scope.ingest(target.Template)
	extractScopedNodeEntities(scope, bound.entities)

	// Next, match directives on every element and template, and resolve bindings and
	// references against the matches.
	directiveBinder := &DirectiveBinder{
		matcher:    b.directiveMatcher,
		directives: bound.directives,
		bindings:   bound.bindings,
		references: bound.references,
	}
	directiveBinder.ingest(target.Template)
	bound.usedDirectives = dedupeDirectives(directiveBinder.matchOrder)

	// Finally, bind expressions, variables and references, which doesn't depend on directive
	// matching.
	templateBinder := newTemplateBinder(bound, scope, nil, 0)
	templateBinder.ingest(target.Template)
	bound.usedPipes = templateBinder.pipes.values

	return bound
}

// Scope is a binding scope within a template.
//
// Variables and references declared within the template are captured by name in
// NamedEntities. Child templates have their own Scope available in ChildScopes.
type Scope struct {
	// NamedEntities are the named members of the scope, first declaration wins.
	NamedEntities map[string]TemplateEntity

	// ChildScopes are the scopes of immediately nested templates.
	ChildScopes map[*render3.Template]*Scope

	parentScope *Scope
	rootNode    *render3.Template
	// declaration order of NamedEntities
	order    []TemplateEntity
	children []*Scope
}

func newScope(parentScope *Scope, rootNode *render3.Template) *Scope {
	return &Scope{
		NamedEntities: make(map[string]TemplateEntity),
		ChildScopes:   make(map[*render3.Template]*Scope),
		parentScope:   parentScope,
		rootNode:      rootNode,
	}
}

// NewScope processes a template and constructs its root Scope.
func NewScope(template []render3.Node) *Scope {
	scope := newScope(nil, nil)
	scope.ingest(template)
	return scope
}

func (s *Scope) ingest(nodes []render3.Node) {
	for _, node := range nodes {
		s.visit(node)
	}
}

func (s *Scope) ingestTemplate(template *render3.Template) {
	// Variables on an <ng-template> are defined in the inner scope.
	for _, variable := range template.Variables {
		s.maybeDeclare(variable.Name, variable)
	}
	s.ingest(template.Children)
}

func (s *Scope) visit(node render3.Node) {
	switch n := node.(type) {
	case *render3.Element:
		for _, ref := range n.References {
			s.maybeDeclare(ref.Name, ref)
		}
		s.ingest(n.Children)
	case *render3.Template:
		// References on an <ng-template> are defined in the outer scope, so capture them before
		// processing the template's child scope.
		for _, ref := range n.References {
			s.maybeDeclare(ref.Name, ref)
		}
		child := newScope(s, n)
		child.ingestTemplate(n)
		s.ChildScopes[n] = child
		s.children = append(s.children, child)
	case *render3.Content:
		s.ingest(n.Children)
	}
}

// maybeDeclare declares something with a name, as long as that name isn't taken.
func (s *Scope) maybeDeclare(name string, thing TemplateEntity) {
	if _, exists := s.NamedEntities[name]; !exists {
		s.NamedEntities[name] = thing
		s.order = append(s.order, thing)
	}
}

// Lookup looks up a name within this scope, recursing into the parent scope.
func (s *Scope) Lookup(name string) TemplateEntity {
	if entity, exists := s.NamedEntities[name]; exists {
		return entity
	}
	if s.parentScope != nil {
		return s.parentScope.Lookup(name)
	}
	return nil
}

// GetChildScope gets the child scope for a template. It must exist.
func (s *Scope) GetChildScope(template *render3.Template) *Scope {
	if res, exists := s.ChildScopes[template]; exists {
		return res
	}
	panic(fmt.Sprintf("Assertion error: child scope for <%s> not found", template.TagName))
}

// extractScopedNodeEntities records, for the root and every template, the entities visible in
// it: inherited ones that are not shadowed (outermost first) followed by its own.
func extractScopedNodeEntities(rootScope *Scope, entities map[*render3.Template][]TemplateEntity) {
	var walk func(scope *Scope, inherited []TemplateEntity)
	walk = func(scope *Scope, inherited []TemplateEntity) {
		visible := make([]TemplateEntity, 0, len(inherited)+len(scope.order))
		for _, entity := range inherited {
			if _, shadowed := scope.NamedEntities[entityName(entity)]; !shadowed {
				visible = append(visible, entity)
			}
		}
		visible = append(visible, scope.order...)
		entities[scope.rootNode] = visible
		for _, child := range scope.children {
			walk(child, visible)
		}
	}
	walk(rootScope, nil)
}

func entityName(entity TemplateEntity) string {
	switch e := entity.(type) {
	case *render3.Reference:
		return e.Name
	case *render3.Variable:
		return e.Name
	default:
		panic(fmt.Sprintf("Assertion error: unexpected template entity %T", entity))
	}
}

// DirectiveBinder matches directives on elements and templates and resolves the bindings and
// references of each node against them.
type DirectiveBinder struct {
	matcher    *DirectiveMatcher
	directives MatchedDirectives
	bindings   BindingsMap
	references ReferenceMap
	matchOrder []DirectiveMeta
}

func (db *DirectiveBinder) ingest(nodes []render3.Node) {
	for _, node := range nodes {
		switch n := node.(type) {
		case *render3.Element:
			db.visitElementOrTemplate(n, n.Children)
		case *render3.Template:
			db.visitElementOrTemplate(n, n.Children)
		case *render3.Content:
			db.ingest(n.Children)
		}
	}
}

func (db *DirectiveBinder) visitElementOrTemplate(node DirectiveOwner, children []render3.Node) {
	directives := []DirectiveMeta{}
	if db.matcher != nil {
		cssSelector := CreateCssSelectorFromNode(node)
		db.matcher.Match(cssSelector, func(_ *css.CssSelector, matched *[]DirectiveMeta) {
			if matched != nil {
				directives = append(directives, *matched...)
			}
		})
	}
	db.directives[node] = directives
	db.matchOrder = append(db.matchOrder, directives...)
	db.trackBindingsAndReferences(node, directives)

	db.ingest(children)
}

func (db *DirectiveBinder) trackBindingsAndReferences(node DirectiveOwner, directives []DirectiveMeta) {
	var (
		references []*render3.Reference
		self       ReferenceTarget
	)
	switch n := node.(type) {
	case *render3.Element:
		references = n.References
		self = &ReferenceTargetElement{Element: n}
	case *render3.Template:
		references = n.References
		self = &ReferenceTargetTemplate{Template: n}
	}

	for _, ref := range references {
		var dirTarget DirectiveMeta

		// An empty reference value points at the component on the node, if there is one, and at
		// the node itself otherwise. A named value must match an exportAs.
		if strings.TrimSpace(ref.Value) == "" {
			for _, dir := range directives {
				if dir.IsComponent() {
					dirTarget = dir
					break
				}
			}
		} else {
			dirTarget = findExportedAs(directives, ref.Value)
			if dirTarget == nil {
				// Unknown target; leave it unmapped.
				continue
			}
		}

		if dirTarget != nil {
			db.references[ref] = &ReferenceTargetWithDirective{Directive: dirTarget, Node: node}
		} else {
			db.references[ref] = self
		}
	}

	setInputBinding := func(binding render3.Node, name string) {
		db.bindings[binding] = consumerOf(node, directives, name, DirectiveMeta.Inputs)
	}
	setOutputBinding := func(binding render3.Node, name string) {
		db.bindings[binding] = consumerOf(node, directives, name, DirectiveMeta.Outputs)
	}

	switch n := node.(type) {
	case *render3.Element:
		for _, input := range n.Inputs {
			setInputBinding(input, input.Name)
		}
		for _, attr := range n.Attributes {
			setInputBinding(attr, attr.Name)
		}
		for _, output := range n.Outputs {
			setOutputBinding(output, output.Name)
		}
	case *render3.Template:
		for _, input := range n.Inputs {
			setInputBinding(input, input.Name)
		}
		for _, attr := range n.Attributes {
			setInputBinding(attr, attr.Name)
		}
		for _, attr := range n.TemplateAttrs {
			switch a := attr.(type) {
			case *render3.BoundAttribute:
				setInputBinding(a, a.Name)
			case *render3.TextAttribute:
				setInputBinding(a, a.Name)
			}
		}
		for _, output := range n.Outputs {
			setOutputBinding(output, output.Name)
		}
	}
}

func findExportedAs(directives []DirectiveMeta, name string) DirectiveMeta {
	for _, dir := range directives {
		for _, exportAs := range dir.ExportAs() {
			if exportAs == name {
				return dir
			}
		}
	}
	return nil
}

// consumerOf returns the first directive claiming name through the given property set, or
// the node.
func consumerOf(node DirectiveOwner, directives []DirectiveMeta, name string, set func(DirectiveMeta) InputOutputPropertySet) interface{} {
	for _, dir := range directives {
		if props := set(dir); props != nil && props.HasBindingPropertyName(name) {
			return dir
		}
	}
	return node
}

// TemplateBinder binds expressions, references and variables of a template.
//
// This is a companion to the DirectiveBinder that doesn't require knowledge of directives
// matched within the template in order to operate. Expressions are walked by the embedded
// RecursiveAstVisitor with overrides for pipes and property accesses.
type TemplateBinder struct {
	expression_parser.RecursiveAstVisitor
	render3.RecursiveVisitor
	bound    *R3BoundTarget
	scope    *Scope
	rootNode *render3.Template
	level    int
	pipes    *orderedSet
}

func newTemplateBinder(bound *R3BoundTarget, scope *Scope, rootNode *render3.Template, level int) *TemplateBinder {
	tb := &TemplateBinder{
		bound:    bound,
		scope:    scope,
		rootNode: rootNode,
		level:    level,
		pipes:    &orderedSet{seen: make(map[string]bool)},
	}
	tb.RecursiveAstVisitor.Outer = tb
	tb.RecursiveVisitor.Outer = tb
	return tb
}

func (tb *TemplateBinder) ingest(nodes []render3.Node) {
	render3.VisitAll(tb, nodes)
}

func (tb *TemplateBinder) ingestTemplate(template *render3.Template) {
	// Only variables and children belong to the template's own scope. Inputs, outputs,
	// template attributes and references were processed by the enclosing binder.
	for _, variable := range template.Variables {
		tb.VisitVariable(variable)
	}
	tb.ingest(template.Children)
	tb.bound.nestingLevel[template] = tb.level
}

func (tb *TemplateBinder) visitExpression(ast expression_parser.AST) {
	tb.RecursiveAstVisitor.Visit(ast, nil)
}

// VisitElement visits an element's bindings, children and references
func (tb *TemplateBinder) VisitElement(element *render3.Element) interface{} {
	for _, input := range element.Inputs {
		tb.VisitBoundAttribute(input)
	}
	for _, output := range element.Outputs {
		tb.VisitBoundEvent(output)
	}
	tb.ingest(element.Children)
	for _, ref := range element.References {
		tb.VisitReference(ref)
	}
	return nil
}

// VisitTemplate visits the bindings of a template in the current scope and then recurses into
// the template with a nested binder.
func (tb *TemplateBinder) VisitTemplate(template *render3.Template) interface{} {
	for _, input := range template.Inputs {
		tb.VisitBoundAttribute(input)
	}
	for _, output := range template.Outputs {
		tb.VisitBoundEvent(output)
	}
	render3.VisitAll(tb, template.TemplateAttrs)
	for _, ref := range template.References {
		tb.VisitReference(ref)
	}

	child := newTemplateBinder(tb.bound, tb.scope.GetChildScope(template), template, tb.level+1)
	child.pipes = tb.pipes
	child.ingestTemplate(template)
	return nil
}

// VisitVariable registers the variable as a symbol of the current template
func (tb *TemplateBinder) VisitVariable(variable *render3.Variable) interface{} {
	if tb.rootNode != nil {
		tb.bound.symbols[variable] = tb.rootNode
	}
	return nil
}

// VisitReference registers the reference as a symbol of the current template
func (tb *TemplateBinder) VisitReference(reference *render3.Reference) interface{} {
	if tb.rootNode != nil {
		tb.bound.symbols[reference] = tb.rootNode
	}
	return nil
}

func (tb *TemplateBinder) VisitBoundAttribute(attr *render3.BoundAttribute) interface{} {
	tb.visitExpression(attr.Value)
	return nil
}

func (tb *TemplateBinder) VisitBoundEvent(event *render3.BoundEvent) interface{} {
	tb.visitExpression(event.Handler)
	return nil
}

func (tb *TemplateBinder) VisitBoundText(text *render3.BoundText) interface{} {
	tb.visitExpression(text.Value)
	return nil
}

// Visit dispatches expression nodes; it resolves the ambiguity between the two embedded
// visitors.
func (tb *TemplateBinder) Visit(ast expression_parser.AST, context interface{}) interface{} {
	return tb.RecursiveAstVisitor.Visit(ast, context)
}

func (tb *TemplateBinder) VisitPipe(ast *expression_parser.BindingPipe, context interface{}) interface{} {
	tb.pipes.add(ast.Name)
	return tb.RecursiveAstVisitor.VisitPipe(ast, context)
}

func (tb *TemplateBinder) VisitPropertyRead(ast *expression_parser.PropertyRead, context interface{}) interface{} {
	tb.maybeMap(ast, ast.Receiver, ast.Name)
	return tb.RecursiveAstVisitor.VisitPropertyRead(ast, context)
}

func (tb *TemplateBinder) VisitSafePropertyRead(ast *expression_parser.SafePropertyRead, context interface{}) interface{} {
	tb.maybeMap(ast, ast.Receiver, ast.Name)
	return tb.RecursiveAstVisitor.VisitSafePropertyRead(ast, context)
}

func (tb *TemplateBinder) VisitPropertyWrite(ast *expression_parser.PropertyWrite, context interface{}) interface{} {
	tb.maybeMap(ast, ast.Receiver, ast.Name)
	return tb.RecursiveAstVisitor.VisitPropertyWrite(ast, context)
}

// maybeMap maps an expression to the template entity it names, if any. Only accesses on the
// implicit receiver can name a template entity; `this.x` always reads the component.
func (tb *TemplateBinder) maybeMap(ast expression_parser.AST, receiver expression_parser.AST, name string) {
	if _, ok := receiver.(*expression_parser.ImplicitReceiver); !ok {
		return
	}
	// Names not found in scope are properties of the component context.
	if target := tb.scope.Lookup(name); target != nil {
		tb.bound.exprTargets[ast] = target
	}
}

type orderedSet struct {
	seen   map[string]bool
	values []string
}

func (s *orderedSet) add(v string) {
	if !s.seen[v] {
		s.seen[v] = true
		s.values = append(s.values, v)
	}
}

func dedupeDirectives(directives []DirectiveMeta) []DirectiveMeta {
	seen := make(map[DirectiveMeta]bool, len(directives))
	result := make([]DirectiveMeta, 0, len(directives))
	for _, dir := range directives {
		if !seen[dir] {
			seen[dir] = true
			result = append(result, dir)
		}
	}
	return result
}

// R3BoundTarget is the BoundTarget produced by R3TargetBinder.
type R3BoundTarget struct {
	target         *Target
	directives     MatchedDirectives
	bindings       BindingsMap
	references     ReferenceMap
	exprTargets    map[expression_parser.AST]TemplateEntity
	symbols        map[TemplateEntity]*render3.Template
	nestingLevel   map[*render3.Template]int
	entities       map[*render3.Template][]TemplateEntity
	usedDirectives []DirectiveMeta
	usedPipes      []string
}

// Target returns the original Target that was bound.
func (bt *R3BoundTarget) Target() *Target {
	return bt.target
}

// GetDirectivesOfNode returns the directives matched on an Element or Template.
func (bt *R3BoundTarget) GetDirectivesOfNode(node render3.Node) []DirectiveMeta {
	return bt.directives[node]
}

// GetReferenceTarget returns the target of a reference, or nil when it is unresolved.
func (bt *R3BoundTarget) GetReferenceTarget(ref *render3.Reference) ReferenceTarget {
	return bt.references[ref]
}

// GetConsumerOfBinding returns the directive or node consuming a binding.
func (bt *R3BoundTarget) GetConsumerOfBinding(binding render3.Node) interface{} {
	return bt.bindings[binding]
}

// GetExpressionTarget returns the Reference or Variable an expression resolves to.
func (bt *R3BoundTarget) GetExpressionTarget(expr expression_parser.AST) TemplateEntity {
	return bt.exprTargets[expr]
}

// GetTemplateOfSymbol returns the Template a Reference or Variable belongs to.
func (bt *R3BoundTarget) GetTemplateOfSymbol(symbol TemplateEntity) *render3.Template {
	return bt.symbols[symbol]
}

// GetNestingLevel returns the nesting level of a Template, or 0 for a template that is not
// part of the target.
func (bt *R3BoundTarget) GetNestingLevel(template *render3.Template) int {
	return bt.nestingLevel[template]
}

// GetEntitiesInTemplateScope returns the entities visible inside template, or at the top level
// for nil.
func (bt *R3BoundTarget) GetEntitiesInTemplateScope(template *render3.Template) []TemplateEntity {
	entities, ok := bt.entities[template]
	if !ok {
		return []TemplateEntity{}
	}
	return append([]TemplateEntity(nil), entities...)
}

// GetUsedDirectives returns all directives used by the target.
func (bt *R3BoundTarget) GetUsedDirectives() []DirectiveMeta {
	return append([]DirectiveMeta{}, bt.usedDirectives...)
}

// GetUsedPipes returns all pipe names used by the target.
func (bt *R3BoundTarget) GetUsedPipes() []string {
	return append([]string{}, bt.usedPipes...)
}
