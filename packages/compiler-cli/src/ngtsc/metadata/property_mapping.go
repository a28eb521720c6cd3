package metadata

// InputOrOutput is a single input or output of a directive: the class property that backs it
// and the name it is bound under in templates.
type InputOrOutput struct {
	ClassPropertyName   string
	BindingPropertyName string
	// Required is only meaningful for inputs.
	Required bool
	// IsSignal marks signal-based inputs and outputs.
	IsSignal bool
}

// ClassPropertyMapping maps class property names to binding property names and back. A class
// property maps to a single binding name, while a binding name may be claimed by several class
// properties.
//
// A ClassPropertyMapping is immutable: Merge and the constructors return new mappings.
type ClassPropertyMapping struct {
	order      []string
	forwardMap map[string]InputOrOutput
	reverseMap map[string][]InputOrOutput
}

// EmptyClassPropertyMapping returns a mapping without entries
func EmptyClassPropertyMapping() *ClassPropertyMapping {
	return NewClassPropertyMapping()
}

// NewClassPropertyMapping builds a mapping from entries. Later entries for the same class
// property replace earlier ones but keep their position.
func NewClassPropertyMapping(entries ...InputOrOutput) *ClassPropertyMapping {
	m := &ClassPropertyMapping{
		forwardMap: make(map[string]InputOrOutput, len(entries)),
		reverseMap: make(map[string][]InputOrOutput),
	}
	for _, entry := range entries {
		if _, exists := m.forwardMap[entry.ClassPropertyName]; !exists {
			m.order = append(m.order, entry.ClassPropertyName)
		}
		m.forwardMap[entry.ClassPropertyName] = entry
	}
	for _, classPropertyName := range m.order {
		entry := m.forwardMap[classPropertyName]
		m.reverseMap[entry.BindingPropertyName] = append(m.reverseMap[entry.BindingPropertyName], entry)
	}
	return m
}

// FromDirectMapping builds a mapping where every property is bound under its own name.
func FromDirectMapping(classPropertyNames ...string) *ClassPropertyMapping {
	entries := make([]InputOrOutput, 0, len(classPropertyNames))
	for _, name := range classPropertyNames {
		entries = append(entries, InputOrOutput{ClassPropertyName: name, BindingPropertyName: name})
	}
	return NewClassPropertyMapping(entries...)
}

// Merge returns a mapping with the entries of a, overridden by those of b.
func Merge(a, b *ClassPropertyMapping) *ClassPropertyMapping {
	entries := append(a.Entries(), b.Entries()...)
	return NewClassPropertyMapping(entries...)
}

// HasBindingPropertyName reports whether a binding property name is claimed
func (m *ClassPropertyMapping) HasBindingPropertyName(propertyName string) bool {
	if m == nil {
		return false
	}
	_, ok := m.reverseMap[propertyName]
	return ok
}

// GetByBindingPropertyName returns every entry bound under propertyName, or nil.
func (m *ClassPropertyMapping) GetByBindingPropertyName(propertyName string) []InputOrOutput {
	if m == nil {
		return nil
	}
	entries, ok := m.reverseMap[propertyName]
	if !ok {
		return nil
	}
	return append([]InputOrOutput(nil), entries...)
}

// GetByClassPropertyName returns the entry of a class property, or nil.
func (m *ClassPropertyMapping) GetByClassPropertyName(classPropertyName string) *InputOrOutput {
	if m == nil {
		return nil
	}
	entry, ok := m.forwardMap[classPropertyName]
	if !ok {
		return nil
	}
	return &entry
}

// ClassPropertyNames returns the class property names in declaration order
func (m *ClassPropertyMapping) ClassPropertyNames() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// PropertyNames returns the binding property names, without duplicates
func (m *ClassPropertyMapping) PropertyNames() []string {
	if m == nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, classPropertyName := range m.order {
		name := m.forwardMap[classPropertyName].BindingPropertyName
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Entries returns every entry in declaration order
func (m *ClassPropertyMapping) Entries() []InputOrOutput {
	if m == nil {
		return nil
	}
	entries := make([]InputOrOutput, 0, len(m.order))
	for _, classPropertyName := range m.order {
		entries = append(entries, m.forwardMap[classPropertyName])
	}
	return entries
}

// Len returns the number of class properties in the mapping
func (m *ClassPropertyMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}
