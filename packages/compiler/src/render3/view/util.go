package view

import (
	"strings"

	"ngtsc-go/packages/compiler/src/css"
	"ngtsc-go/packages/compiler/src/expression_parser"
	"ngtsc-go/packages/compiler/src/render3"
)

const (
	i18nAttr       = "i18n"
	i18nAttrPrefix = "i18n-"
)

// IsI18nAttribute checks if an attribute name is an i18n attribute
func IsI18nAttribute(name string) bool {
	return name == i18nAttr || strings.HasPrefix(name, i18nAttrPrefix)
}

// SplitNsName splits `:ns:name` into its namespace and local name. Names without a leading
// colon have no namespace.
func SplitNsName(elementName string) (string, string) {
	if !strings.HasPrefix(elementName, ":") {
		return "", elementName
	}
	colonIndex := strings.Index(elementName[1:], ":")
	if colonIndex == -1 {
		return "", elementName
	}
	colonIndex++
	return elementName[1:colonIndex], elementName[colonIndex+1:]
}

// AttributeList is an insertion-ordered attribute map; setting an existing name keeps its position
// and replaces its value.
type AttributeList struct {
	Names  []string
	Values map[string]string
}

func (l *AttributeList) set(name, value string) {
	if _, exists := l.Values[name]; !exists {
		l.Names = append(l.Names, name)
	}
	l.Values[name] = value
}

// CreateCssSelectorFromNode creates a CssSelector describing an Element or Template for
// directive matching.
func CreateCssSelectorFromNode(node DirectiveOwner) *css.CssSelector {
	elementName := "ng-template"
	if element, ok := node.(*render3.Element); ok {
		elementName = element.Name
	}

	cssSelector := css.NewCssSelector()
	_, elementNameNoNs := SplitNsName(elementName)
	cssSelector.SetElement(elementNameNoNs)

	attributes := GetAttrsForDirectiveMatching(node)
	for _, name := range attributes.Names {
		value := attributes.Values[name]
		_, nameNoNs := SplitNsName(name)
		cssSelector.AddAttribute(nameNoNs, value)
		if strings.ToLower(name) == "class" {
			for _, className := range strings.Fields(value) {
				cssSelector.AddClassName(className)
			}
		}
	}
	return cssSelector
}

// GetAttrsForDirectiveMatching extracts the properties and values of an element or template
// that take part in directive matching.
//
// A template desugared from a `*` attribute only exposes its template attributes, since the
// attributes and bindings of the host element belong to the element inside it.
func GetAttrsForDirectiveMatching(elOrTpl DirectiveOwner) *AttributeList {
	attributes := &AttributeList{Values: make(map[string]string)}

	var (
		attrs   []*render3.TextAttribute
		inputs  []*render3.BoundAttribute
		outputs []*render3.BoundEvent
	)
	switch n := elOrTpl.(type) {
	case *render3.Template:
		if n.IsInline() {
			for _, attr := range n.TemplateAttrs {
				switch a := attr.(type) {
				case *render3.TextAttribute:
					attributes.set(a.Name, "")
				case *render3.BoundAttribute:
					attributes.set(a.Name, "")
				}
			}
			return attributes
		}
		attrs, inputs, outputs = n.Attributes, n.Inputs, n.Outputs
	case *render3.Element:
		attrs, inputs, outputs = n.Attributes, n.Inputs, n.Outputs
	}

	for _, attr := range attrs {
		if !IsI18nAttribute(attr.Name) {
			attributes.set(attr.Name, attr.Value)
		}
	}
	for _, input := range inputs {
		if input.Type == expression_parser.BindingTypeProperty || input.Type == expression_parser.BindingTypeTwoWay {
			attributes.set(input.Name, "")
		}
	}
	for _, output := range outputs {
		attributes.set(output.Name, "")
	}
	return attributes
}
