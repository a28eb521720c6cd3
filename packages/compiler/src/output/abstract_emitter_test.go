package output_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ngtsc-go/packages/compiler/src/output"
)

type namedNode string

func (n namedNode) DebugName() string { return string(n) }

func TestPrint(t *testing.T) {
	t.Run("should print imported symbols with their module", func(t *testing.T) {
		got := output.Print(output.NewExternalExprOf("@angular/common", "NgIf"))
		if diff := cmp.Diff("@angular/common#NgIf", got); diff != "" {
			t.Errorf("print mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should print local symbols by name", func(t *testing.T) {
		if diff := cmp.Diff("Dir", output.Print(output.NewExternalExprOf("", "Dir"))); diff != "" {
			t.Errorf("print mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("ctx", output.Print(output.NewReadVarExpr("ctx", nil))); diff != "" {
			t.Errorf("print mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should print wrapped nodes through their debug name", func(t *testing.T) {
		if diff := cmp.Diff("MyCmp", output.Print(output.NewWrappedNodeExpr(namedNode("MyCmp"), nil))); diff != "" {
			t.Errorf("print mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("<node>", output.Print(output.NewWrappedNodeExpr(42, nil))); diff != "" {
			t.Errorf("print mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should compare external expressions by value", func(t *testing.T) {
		a := output.NewExternalExprOf("./a", "A")
		if !a.IsEquivalent(output.NewExternalExprOf("./a", "A")) {
			t.Errorf("expected equal references to be equivalent")
		}
		if a.IsEquivalent(output.NewExternalExprOf("./b", "A")) {
			t.Errorf("expected references to different modules to differ")
		}
	})
}
