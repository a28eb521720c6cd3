package core

import "fmt"

// SchemaMetadata names a schema that relaxes template checking of unknown elements and
// properties
type SchemaMetadata struct {
	Name string
}

var (
	CUSTOM_ELEMENTS_SCHEMA = SchemaMetadata{Name: "custom-elements"}
	NO_ERRORS_SCHEMA       = SchemaMetadata{Name: "no-errors-schema"}
)

// SchemaByName resolves a schema from its name or from the constant it is exported as
// (`CUSTOM_ELEMENTS_SCHEMA`, `NO_ERRORS_SCHEMA`).
func SchemaByName(name string) (SchemaMetadata, error) {
	switch name {
	case CUSTOM_ELEMENTS_SCHEMA.Name, "CUSTOM_ELEMENTS_SCHEMA":
		return CUSTOM_ELEMENTS_SCHEMA, nil
	case NO_ERRORS_SCHEMA.Name, "NO_ERRORS_SCHEMA":
		return NO_ERRORS_SCHEMA, nil
	}
	return SchemaMetadata{}, fmt.Errorf("unknown schema %q", name)
}
