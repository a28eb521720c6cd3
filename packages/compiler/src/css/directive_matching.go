package css

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// selectorRegexp group indices
const (
	groupNot       = 1 // ":not("
	groupTag       = 2 // tag with prefix
	groupPrefix    = 3 // "." or "#"
	groupAttribute = 4 // attribute name
	groupValueDQ   = 5 // double quoted value
	groupValueSQ   = 6 // single quoted value
	groupValue     = 7 // unquoted value
	groupNotEnd    = 8 // ")"
	groupSeparator = 9 // ","
)

// Go has no backreferences, so quotes are not required to match.
var selectorRegexp = regexp.MustCompile(
	`(\:not\()|` +
		`(([\.\#]?)[-\w]+)|` +
		`(?:\[([-.\w*\\$]+)(?:=(?:"([^"]*)"|'([^']*)'|([^\]\s]+)))?\])|` +
		`(\))|` +
		`(\s*,\s*)`,
)

// CssSelector is a parsed simple selector: an element, class names, attributes and
// `:not()` selectors.
type CssSelector struct {
	Element      *string
	ClassNames   []string
	Attrs        []string // pairs: [name, value, name, value, ...]
	NotSelectors []*CssSelector
}

// NewCssSelector creates a new CssSelector
func NewCssSelector() *CssSelector {
	return &CssSelector{}
}

// ParseCssSelector parses a selector list such as `[ngFor][ngForOf], my-cmp:not(.x)`.
func ParseCssSelector(selector string) ([]*CssSelector, error) {
	var results []*CssSelector

	addResult := func(cssSel *CssSelector) {
		if len(cssSel.NotSelectors) > 0 && cssSel.Element == nil &&
			len(cssSel.ClassNames) == 0 && len(cssSel.Attrs) == 0 {
			cssSel.SetElement("*")
		}
		results = append(results, cssSel)
	}

	cssSelector := NewCssSelector()
	current := cssSelector
	inNot := false

	for _, match := range selectorRegexp.FindAllStringSubmatch(selector, -1) {
		if match[groupNot] != "" {
			if inNot {
				return nil, fmt.Errorf("nesting :not in a selector is not allowed")
			}
			inNot = true
			current = NewCssSelector()
			cssSelector.NotSelectors = append(cssSelector.NotSelectors, current)
		}

		if tag := match[groupTag]; tag != "" {
			switch match[groupPrefix] {
			case "#":
				current.AddAttribute("id", tag[1:])
			case ".":
				current.AddClassName(tag[1:])
			default:
				current.SetElement(tag)
			}
		}

		if attribute := match[groupAttribute]; attribute != "" {
			value := match[groupValueDQ]
			if value == "" {
				value = match[groupValueSQ]
			}
			if value == "" {
				value = match[groupValue]
			}
			name, err := unescapeAttribute(attribute)
			if err != nil {
				return nil, err
			}
			current.AddAttribute(name, value)
		}

		if match[groupNotEnd] != "" {
			inNot = false
			current = cssSelector
		}

		if match[groupSeparator] != "" {
			if inNot {
				return nil, fmt.Errorf("multiple selectors in :not are not supported")
			}
			addResult(cssSelector)
			cssSelector = NewCssSelector()
			current = cssSelector
		}
	}

	addResult(cssSelector)
	return results, nil
}

// MustParseCssSelector is like ParseCssSelector but panics on malformed input. Selectors
// coming from analysed metadata have already been validated.
func MustParseCssSelector(selector string) []*CssSelector {
	selectors, err := ParseCssSelector(selector)
	if err != nil {
		panic(fmt.Sprintf("Assertion error: invalid selector %q: %v", selector, err))
	}
	return selectors
}

// unescapeAttribute removes `\` escapes; an unescaped `$` is rejected.
func unescapeAttribute(attr string) (string, error) {
	var b strings.Builder
	escaping := false
	for i := 0; i < len(attr); i++ {
		ch := attr[i]
		if ch == '\\' {
			escaping = true
			continue
		}
		if ch == '$' && !escaping {
			return "", fmt.Errorf(`error in attribute selector "%s". unescaped "$" is not supported. please escape with "\$"`, attr)
		}
		escaping = false
		b.WriteByte(ch)
	}
	return b.String(), nil
}

func escapeAttribute(attr string) string {
	return strings.ReplaceAll(strings.ReplaceAll(attr, `\`, `\\`), "$", `\$`)
}

// IsElementSelector reports whether the selector only names an element
func (cs *CssSelector) IsElementSelector() bool {
	return cs.Element != nil && len(cs.ClassNames) == 0 && len(cs.Attrs) == 0 && len(cs.NotSelectors) == 0
}

// SetElement sets the element name
func (cs *CssSelector) SetElement(element string) {
	cs.Element = &element
}

// AddAttribute adds an attribute. Values are matched case-insensitively.
func (cs *CssSelector) AddAttribute(name, value string) {
	cs.Attrs = append(cs.Attrs, name, strings.ToLower(value))
}

// AddClassName adds a class name
func (cs *CssSelector) AddClassName(name string) {
	cs.ClassNames = append(cs.ClassNames, strings.ToLower(name))
}

// GetAttrs returns the attribute pairs with the class names folded into `class`
func (cs *CssSelector) GetAttrs() []string {
	var result []string
	if len(cs.ClassNames) > 0 {
		result = append(result, "class", strings.Join(cs.ClassNames, " "))
	}
	return append(result, cs.Attrs...)
}

func (cs *CssSelector) String() string {
	var b strings.Builder
	if cs.Element != nil {
		b.WriteString(*cs.Element)
	}
	for _, klass := range cs.ClassNames {
		b.WriteString("." + klass)
	}
	for i := 0; i+1 < len(cs.Attrs); i += 2 {
		name := escapeAttribute(cs.Attrs[i])
		if value := cs.Attrs[i+1]; value != "" {
			fmt.Fprintf(&b, "[%s=%s]", name, value)
		} else {
			fmt.Fprintf(&b, "[%s]", name)
		}
	}
	for _, notSelector := range cs.NotSelectors {
		fmt.Fprintf(&b, ":not(%s)", notSelector)
	}
	return b.String()
}

// SelectorMatcher indexes selectors so that the selectors matching an element can be
// found without testing each one.
type SelectorMatcher[T any] struct {
	elementMap          map[string][]*SelectorContext[T]
	elementPartialMap   map[string]*SelectorMatcher[T]
	classMap            map[string][]*SelectorContext[T]
	classPartialMap     map[string]*SelectorMatcher[T]
	attrValueMap        map[string]map[string][]*SelectorContext[T]
	attrValuePartialMap map[string]map[string]*SelectorMatcher[T]
	listContexts        []*SelectorListContext
	nextSeq             int
}

// NewSelectorMatcher creates a new SelectorMatcher
func NewSelectorMatcher[T any]() *SelectorMatcher[T] {
	return &SelectorMatcher[T]{
		elementMap:          make(map[string][]*SelectorContext[T]),
		elementPartialMap:   make(map[string]*SelectorMatcher[T]),
		classMap:            make(map[string][]*SelectorContext[T]),
		classPartialMap:     make(map[string]*SelectorMatcher[T]),
		attrValueMap:        make(map[string]map[string][]*SelectorContext[T]),
		attrValuePartialMap: make(map[string]map[string]*SelectorMatcher[T]),
	}
}

// CreateNotMatcher creates a matcher for the `:not()` part of a selector
func CreateNotMatcher(notSelectors []*CssSelector) *SelectorMatcher[struct{}] {
	notMatcher := NewSelectorMatcher[struct{}]()
	notMatcher.AddSelectables(notSelectors, nil)
	return notMatcher
}

// AddSelectables registers a selector list under a single context. A list matches at most
// once per Match call.
func (sm *SelectorMatcher[T]) AddSelectables(cssSelectors []*CssSelector, callbackCtxt *T) {
	var listContext *SelectorListContext
	if len(cssSelectors) > 1 {
		listContext = NewSelectorListContext(cssSelectors)
		sm.listContexts = append(sm.listContexts, listContext)
	}
	seq := sm.nextSeq
	sm.nextSeq++
	for _, cssSelector := range cssSelectors {
		sm.addSelectable(cssSelector, callbackCtxt, listContext, seq)
	}
}

func (sm *SelectorMatcher[T]) addSelectable(cssSelector *CssSelector, callbackCtxt *T, listContext *SelectorListContext, seq int) {
	matcher := sm
	element := cssSelector.Element
	classNames := cssSelector.ClassNames
	attrs := cssSelector.Attrs
	selectable := NewSelectorContext(cssSelector, callbackCtxt, listContext)
	selectable.seq = seq

	if element != nil {
		if len(attrs) == 0 && len(classNames) == 0 {
			addTerminal(matcher.elementMap, *element, selectable)
		} else {
			matcher = addPartial(matcher.elementPartialMap, *element)
		}
	}

	for i, className := range classNames {
		if len(attrs) == 0 && i == len(classNames)-1 {
			addTerminal(matcher.classMap, className, selectable)
		} else {
			matcher = addPartial(matcher.classPartialMap, className)
		}
	}

	for i := 0; i+1 < len(attrs); i += 2 {
		name, value := attrs[i], attrs[i+1]
		if i == len(attrs)-2 {
			terminalValuesMap, ok := matcher.attrValueMap[name]
			if !ok {
				terminalValuesMap = make(map[string][]*SelectorContext[T])
				matcher.attrValueMap[name] = terminalValuesMap
			}
			addTerminal(terminalValuesMap, value, selectable)
		} else {
			partialValuesMap, ok := matcher.attrValuePartialMap[name]
			if !ok {
				partialValuesMap = make(map[string]*SelectorMatcher[T])
				matcher.attrValuePartialMap[name] = partialValuesMap
			}
			matcher = addPartial(partialValuesMap, value)
		}
	}
}

func addTerminal[T any](m map[string][]*SelectorContext[T], name string, selectable *SelectorContext[T]) {
	m[name] = append(m[name], selectable)
}

func addPartial[T any](m map[string]*SelectorMatcher[T], name string) *SelectorMatcher[T] {
	matcher, ok := m[name]
	if !ok {
		matcher = NewSelectorMatcher[T]()
		m[name] = matcher
	}
	return matcher
}

// MatchCallback is invoked for every matched selector with the context it was registered
// with.
type MatchCallback[T any] func(c *CssSelector, a *T)

// Match finds the selectors matching cssSelector, which describes an element. Callbacks
// run in the order the selectors were added.
func (sm *SelectorMatcher[T]) Match(cssSelector *CssSelector, matchedCallback MatchCallback[T]) bool {
	for _, listContext := range sm.listContexts {
		listContext.AlreadyMatched = false
	}

	var matched []*SelectorContext[T]
	collect := func(sc *SelectorContext[T]) {
		matched = append(matched, sc)
	}
	result := sm.match(cssSelector, collect)

	if matchedCallback != nil {
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
		for _, sc := range matched {
			matchedCallback(sc.Selector, sc.CbContext)
		}
	}
	return result
}

func (sm *SelectorMatcher[T]) match(cssSelector *CssSelector, collect func(*SelectorContext[T])) bool {
	result := false

	if element := cssSelector.Element; element != nil {
		result = sm.matchTerminal(sm.elementMap, *element, cssSelector, collect) || result
		result = sm.matchPartial(sm.elementPartialMap, *element, cssSelector, collect) || result
	}

	for _, className := range cssSelector.ClassNames {
		result = sm.matchTerminal(sm.classMap, className, cssSelector, collect) || result
		result = sm.matchPartial(sm.classPartialMap, className, cssSelector, collect) || result
	}

	attrs := cssSelector.Attrs
	for i := 0; i+1 < len(attrs); i += 2 {
		name, value := attrs[i], attrs[i+1]

		if terminalValuesMap, ok := sm.attrValueMap[name]; ok {
			if value != "" {
				result = sm.matchTerminal(terminalValuesMap, "", cssSelector, collect) || result
			}
			result = sm.matchTerminal(terminalValuesMap, value, cssSelector, collect) || result
		}

		if partialValuesMap, ok := sm.attrValuePartialMap[name]; ok {
			if value != "" {
				result = sm.matchPartial(partialValuesMap, "", cssSelector, collect) || result
			}
			result = sm.matchPartial(partialValuesMap, value, cssSelector, collect) || result
		}
	}
	return result
}

func (sm *SelectorMatcher[T]) matchTerminal(m map[string][]*SelectorContext[T], name string, cssSelector *CssSelector, collect func(*SelectorContext[T])) bool {
	selectables := append([]*SelectorContext[T]{}, m[name]...)
	selectables = append(selectables, m["*"]...)

	result := false
	for _, selectable := range selectables {
		if selectable.Finalize(cssSelector, collect) {
			result = true
		}
	}
	return result
}

func (sm *SelectorMatcher[T]) matchPartial(m map[string]*SelectorMatcher[T], name string, cssSelector *CssSelector, collect func(*SelectorContext[T])) bool {
	nested, ok := m[name]
	if !ok {
		return false
	}
	// nested matchers never own list contexts, so they are not reset here
	return nested.match(cssSelector, collect)
}

// SelectorListContext tracks whether any selector of a list has matched already
type SelectorListContext struct {
	AlreadyMatched bool
	Selectors      []*CssSelector
}

// NewSelectorListContext creates a new SelectorListContext
func NewSelectorListContext(selectors []*CssSelector) *SelectorListContext {
	return &SelectorListContext{Selectors: selectors}
}

// SelectorContext is a registered selector together with its callback context
type SelectorContext[T any] struct {
	Selector     *CssSelector
	CbContext    *T
	ListContext  *SelectorListContext
	NotSelectors []*CssSelector
	seq          int
}

// NewSelectorContext creates a new SelectorContext
func NewSelectorContext[T any](selector *CssSelector, cbContext *T, listContext *SelectorListContext) *SelectorContext[T] {
	return &SelectorContext[T]{
		Selector:     selector,
		CbContext:    cbContext,
		ListContext:  listContext,
		NotSelectors: selector.NotSelectors,
	}
}

// Finalize checks the `:not()` selectors and reports the match through collect.
func (sc *SelectorContext[T]) Finalize(cssSelector *CssSelector, collect func(*SelectorContext[T])) bool {
	result := true
	if len(sc.NotSelectors) > 0 && (sc.ListContext == nil || !sc.ListContext.AlreadyMatched) {
		result = !CreateNotMatcher(sc.NotSelectors).Match(cssSelector, nil)
	}
	if result && collect != nil && (sc.ListContext == nil || !sc.ListContext.AlreadyMatched) {
		if sc.ListContext != nil {
			sc.ListContext.AlreadyMatched = true
		}
		collect(sc)
	}
	return result
}
