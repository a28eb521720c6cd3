package view

import (
	"fmt"
	"strings"

	"ngtsc-go/packages/compiler/src/expression_parser"
	"ngtsc-go/packages/compiler/src/render3"
	"ngtsc-go/packages/compiler/src/util"
)

const (
	ngTemplateTag = "ng-template"
	ngContentTag  = "ng-content"
	implicitValue = "$implicit"

	animatePropPrefix  = "animate-"
	bindPrefix         = "bind-"
	bindonPrefix       = "bindon-"
	onPrefix           = "on-"
	refPrefix          = "ref-"
	letPrefix          = "let-"
	attrPropPrefix     = "attr."
	classPropPrefix    = "class."
	stylePropPrefix    = "style."
	templateAttrPrefix = "*"
)

// Attribute is a raw `name="value"` pair of a template element.
type Attribute struct {
	Name  string
	Value string
}

// NodeSource is a template node before binding syntax is interpreted. An empty Tag denotes a
// text node carrying Text. Line is 1-based, 0 when unknown.
type NodeSource struct {
	Tag      string
	Text     string
	Line     int
	Attrs    []Attribute
	Children []*NodeSource
}

// Render3ParseResult is the result of TemplateNodesToRender3Ast.
type Render3ParseResult struct {
	Nodes              []render3.Node
	Errors             []*util.ParseError
	NgContentSelectors []string
}

// TemplateNodesToRender3Ast interprets the binding syntax of raw template nodes and converts
// them into render3 nodes. url names the template in error messages.
func TemplateNodesToRender3Ast(nodes []*NodeSource, url string) *Render3ParseResult {
	t := &templateTransform{
		parser: expression_parser.NewParser(expression_parser.NewLexer()),
		url:    url,
	}
	t.file = util.NewParseSourceFile("", url)
	result := &Render3ParseResult{Nodes: t.visitAll(nodes)}
	result.Errors = t.errors
	result.NgContentSelectors = t.ngContentSelectors
	return result
}

type templateTransform struct {
	parser             *expression_parser.Parser
	url                string
	file               *util.ParseSourceFile
	errors             []*util.ParseError
	ngContentSelectors []string
	// line of the node being visited
	line int
}

func (t *templateTransform) span() *util.ParseSourceSpan {
	return t.file.Span(t.line)
}

func (t *templateTransform) here() render3.Located {
	return render3.Located{Span: t.span()}
}

func (t *templateTransform) reportError(format string, args ...interface{}) {
	t.errors = append(t.errors, util.NewParseError(t.span(), fmt.Sprintf(format, args...)))
}

func (t *templateTransform) collect(ast *expression_parser.ASTWithSource) *expression_parser.ASTWithSource {
	if ast != nil {
		t.errors = append(t.errors, ast.Errors...)
	}
	return ast
}

func (t *templateTransform) visitAll(nodes []*NodeSource) []render3.Node {
	result := make([]render3.Node, 0, len(nodes))
	for _, node := range nodes {
		if r3Node := t.visit(node); r3Node != nil {
			result = append(result, r3Node)
		}
	}
	return result
}

func (t *templateTransform) visit(node *NodeSource) render3.Node {
	if node == nil {
		return nil
	}
	parentLine := t.line
	t.line = node.Line
	defer func() { t.line = parentLine }()
	if node.Tag == "" {
		return t.visitText(node.Text)
	}
	return t.visitElement(node)
}

func (t *templateTransform) visitText(text string) render3.Node {
	if ast := t.collect(t.parser.ParseInterpolation(text, t.url, 0)); ast != nil {
		return &render3.BoundText{Located: t.here(), Value: ast}
	}
	return &render3.Text{Located: t.here(), Value: text}
}

// parsedElement accumulates the interpreted attributes of one element.
type parsedElement struct {
	attributes    []*render3.TextAttribute
	inputs        []*render3.BoundAttribute
	outputs       []*render3.BoundEvent
	references    []*render3.Reference
	variables     []*render3.Variable
	templateAttrs []render3.Node
	templateVars  []*render3.Variable
	hasInline     bool
}

func (t *templateTransform) visitElement(node *NodeSource) render3.Node {
	isTemplateElement := node.Tag == ngTemplateTag
	parsed := &parsedElement{}

	for _, attr := range node.Attrs {
		if strings.HasPrefix(attr.Name, templateAttrPrefix) {
			if parsed.hasInline {
				t.reportError("Can't have multiple template bindings on one element. Use only one attribute prefixed with *")
				continue
			}
			parsed.hasInline = true
			t.parseInlineTemplateBinding(attr, parsed)
			continue
		}
		t.parseAttribute(attr, isTemplateElement, parsed)
	}

	children := t.visitAll(node.Children)

	var r3Node render3.Node
	switch {
	case node.Tag == ngContentTag:
		selector := "*"
		for _, attr := range parsed.attributes {
			if attr.Name == "select" && strings.TrimSpace(attr.Value) != "" {
				selector = strings.TrimSpace(attr.Value)
			}
		}
		t.ngContentSelectors = append(t.ngContentSelectors, selector)
		r3Node = &render3.Content{Located: t.here(), Selector: selector, Attributes: parsed.attributes, Children: children}
	case isTemplateElement:
		r3Node = &render3.Template{
			Located:    t.here(),
			TagName:    ngTemplateTag,
			Attributes: parsed.attributes,
			Inputs:     parsed.inputs,
			Outputs:    parsed.outputs,
			Children:   children,
			References: parsed.references,
			Variables:  parsed.variables,
		}
	default:
		if len(parsed.variables) > 0 {
			t.reportError(`"let-" is only supported on ng-template elements.`)
		}
		r3Node = &render3.Element{
			Located:    t.here(),
			Name:       node.Tag,
			Attributes: parsed.attributes,
			Inputs:     parsed.inputs,
			Outputs:    parsed.outputs,
			Children:   children,
			References: parsed.references,
		}
	}

	if !parsed.hasInline {
		return r3Node
	}
	// The element is wrapped in a template that carries the microsyntax bindings.
	return &render3.Template{
		Located:       t.here(),
		Inline:        true,
		TagName:       node.Tag,
		TemplateAttrs: parsed.templateAttrs,
		Children:      []render3.Node{r3Node},
		Variables:     parsed.templateVars,
	}
}

func (t *templateTransform) parseInlineTemplateBinding(attr Attribute, parsed *parsedElement) {
	key := attr.Name[len(templateAttrPrefix):]
	result := t.parser.ParseTemplateBindings(key, attr.Value, t.url, 0, 0)
	t.errors = append(t.errors, result.Errors...)

	for _, binding := range result.Bindings {
		switch b := binding.(type) {
		case *expression_parser.VariableBinding:
			value := implicitValue
			if b.Value != nil {
				value = b.Value.Source
			}
			parsed.templateVars = append(parsed.templateVars,
				&render3.Variable{Located: t.here(), Name: b.Key.Source, Value: value})
		case *expression_parser.ExpressionBinding:
			if b.Value == nil {
				parsed.templateAttrs = append(parsed.templateAttrs,
					&render3.TextAttribute{Located: t.here(), Name: b.Key.Source})
				continue
			}
			parsed.templateAttrs = append(parsed.templateAttrs, &render3.BoundAttribute{
				Located: t.here(),
				Name:    b.Key.Source,
				Type:    expression_parser.BindingTypeProperty,
				Value:   b.Value,
			})
		}
	}
}

func normalizeAttributeName(attrName string) string {
	if strings.HasPrefix(strings.ToLower(attrName), "data-") {
		return attrName[len("data-"):]
	}
	return attrName
}

func (t *templateTransform) parseAttribute(attr Attribute, isTemplateElement bool, parsed *parsedElement) {
	name := normalizeAttributeName(attr.Name)
	value := attr.Value

	switch {
	case strings.HasPrefix(name, "#"):
		t.addReference(name[1:], value, parsed)
	case strings.HasPrefix(name, refPrefix):
		t.addReference(name[len(refPrefix):], value, parsed)
	case strings.HasPrefix(name, letPrefix):
		varName := name[len(letPrefix):]
		if isTemplateElement {
			if value == "" {
				value = implicitValue
			}
			parsed.variables = append(parsed.variables, &render3.Variable{Located: t.here(), Name: varName, Value: value})
		} else {
			t.reportError(`"let-" is only supported on ng-template elements.`)
		}
	case strings.HasPrefix(name, "[(") && strings.HasSuffix(name, ")]"):
		t.addTwoWayBinding(name[2:len(name)-2], value, parsed)
	case strings.HasPrefix(name, bindonPrefix):
		t.addTwoWayBinding(name[len(bindonPrefix):], value, parsed)
	case strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]"):
		t.addPropertyBinding(name[1:len(name)-1], value, parsed)
	case strings.HasPrefix(name, bindPrefix):
		t.addPropertyBinding(name[len(bindPrefix):], value, parsed)
	case strings.HasPrefix(name, "@"):
		t.addPropertyBinding(name, value, parsed)
	case strings.HasPrefix(name, animatePropPrefix):
		t.addPropertyBinding("@"+name[len(animatePropPrefix):], value, parsed)
	case strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")"):
		t.addEvent(name[1:len(name)-1], value, parsed)
	case strings.HasPrefix(name, onPrefix):
		t.addEvent(name[len(onPrefix):], value, parsed)
	default:
		if ast := t.collect(t.parser.ParseInterpolation(value, t.url, 0)); ast != nil {
			parsed.inputs = append(parsed.inputs, &render3.BoundAttribute{
				Located: t.here(),
				Name:    name,
				Type:    expression_parser.BindingTypeProperty,
				Value:   ast,
			})
			return
		}
		parsed.attributes = append(parsed.attributes, &render3.TextAttribute{Located: t.here(), Name: name, Value: value})
	}
}

func (t *templateTransform) addReference(name, value string, parsed *parsedElement) {
	if strings.Contains(name, "-") {
		t.reportError(`"-" is not allowed in reference names`)
		return
	}
	if name == "" {
		t.reportError("Reference does not have a name")
		return
	}
	for _, ref := range parsed.references {
		if ref.Name == name {
			t.reportError("Reference %q is defined more than once", name)
			return
		}
	}
	parsed.references = append(parsed.references, &render3.Reference{Located: t.here(), Name: name, Value: value})
}

func (t *templateTransform) addPropertyBinding(name, value string, parsed *parsedElement) {
	bindingType := expression_parser.BindingTypeProperty
	unit := ""
	switch {
	case strings.HasPrefix(name, "@"):
		bindingType = expression_parser.BindingTypeAnimation
		name = name[1:]
	case strings.HasPrefix(name, attrPropPrefix):
		bindingType = expression_parser.BindingTypeAttribute
		name = name[len(attrPropPrefix):]
	case strings.HasPrefix(name, classPropPrefix):
		bindingType = expression_parser.BindingTypeClass
		name = name[len(classPropPrefix):]
	case strings.HasPrefix(name, stylePropPrefix):
		bindingType = expression_parser.BindingTypeStyle
		name = name[len(stylePropPrefix):]
		if dot := strings.Index(name, "."); dot >= 0 {
			name, unit = name[:dot], name[dot+1:]
		}
	}
	if name == "" {
		t.reportError("Property name is missing in binding")
		return
	}

	ast := t.collect(t.parser.ParseBinding(value, t.url, 0))
	parsed.inputs = append(parsed.inputs, &render3.BoundAttribute{
		Located: t.here(),
		Name:    name,
		Type:    bindingType,
		Value:   ast,
		Unit:    unit,
	})
}

func (t *templateTransform) addTwoWayBinding(name, value string, parsed *parsedElement) {
	ast := t.collect(t.parser.ParseBinding(value, t.url, 0))
	parsed.inputs = append(parsed.inputs, &render3.BoundAttribute{
		Located: t.here(),
		Name:    name,
		Type:    expression_parser.BindingTypeTwoWay,
		Value:   ast,
	})
	handler := t.collect(t.parser.ParseAction(value, t.url, 0))
	parsed.outputs = append(parsed.outputs, &render3.BoundEvent{
		Located: t.here(),
		Name:    name + "Change",
		Type:    expression_parser.ParsedEventTypeTwoWay,
		Handler: handler,
	})
}

// addEvent parses `(target:event)`, `(event)` and `(@trigger.phase)`.
func (t *templateTransform) addEvent(name, value string, parsed *parsedElement) {
	eventType := expression_parser.ParsedEventTypeRegular
	target, phase := "", ""
	if strings.HasPrefix(name, "@") {
		eventType = expression_parser.ParsedEventTypeAnimation
		name = name[1:]
		if dot := strings.Index(name, "."); dot >= 0 {
			name, phase = name[:dot], strings.ToLower(name[dot+1:])
		}
	} else if colon := strings.Index(name, ":"); colon >= 0 {
		target, name = strings.TrimSpace(name[:colon]), strings.TrimSpace(name[colon+1:])
	}
	if name == "" {
		t.reportError("Event name is missing in binding")
		return
	}

	handler := t.collect(t.parser.ParseAction(value, t.url, 0))
	parsed.outputs = append(parsed.outputs, &render3.BoundEvent{
		Located: t.here(),
		Name:    name,
		Type:    eventType,
		Handler: handler,
		Target:  target,
		Phase:   phase,
	})
}
