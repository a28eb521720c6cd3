package diagnostics_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
)

func TestDiagnostic(t *testing.T) {
	t.Run("should format codes with the NG prefix", func(t *testing.T) {
		if diff := cmp.Diff("NG6007", diagnostics.FormatCode(diagnostics.NgModuleDeclarationNotUnique)); diff != "" {
			t.Errorf("code mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("NGMODULE_REEXPORT_NAME_COLLISION", diagnostics.NgModuleReexportNameCollision.String()); diff != "" {
			t.Errorf("name mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should render related information", func(t *testing.T) {
		d := diagnostics.MakeDiagnostic(diagnostics.NgModuleDeclarationNotUnique, "/app/a.ts", "Dir",
			"Cannot declare 'Dir' in multiple NgModules.",
			diagnostics.MakeRelatedInformation("/app/b.ts", "BModule", "'Dir' is also declared in 'BModule'."))
		want := "/app/a.ts error NG6007: Cannot declare 'Dir' in multiple NgModules.\n" +
			"  /app/b.ts (BModule): 'Dir' is also declared in 'BModule'."
		if diff := cmp.Diff(want, d.Error()); diff != "" {
			t.Errorf("rendering mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should detect errors", func(t *testing.T) {
		warning := &diagnostics.Diagnostic{Category: diagnostics.CategoryWarning}
		if diagnostics.HasErrors([]*diagnostics.Diagnostic{warning}) {
			t.Errorf("warnings are not errors")
		}
		if !diagnostics.HasErrors([]*diagnostics.Diagnostic{warning, diagnostics.MakeDiagnostic(diagnostics.MissingPipe, "", "", "")}) {
			t.Errorf("expected an error")
		}
	})
}
