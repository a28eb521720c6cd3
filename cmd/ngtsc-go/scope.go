package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
)

func newScopeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scope <manifest> <component>",
		Short: "Print the type-check scope of a component",
		Long:  "Print the type-check scope of a component. The component is written <file>#<name>, or just <name> when it is unique.",
		Args:  cobra.ExactArgs(2),
		RunE:  runScope,
	}
}

func runScope(cmd *cobra.Command, args []string) error {
	compilation, err := loadCompilation(cmd, args[0])
	if err != nil {
		return err
	}
	component, err := compilation.LookupComponent(args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	componentScope := compilation.ScopeOf(component)
	componentColor.Fprint(out, component.Name)
	fmt.Fprintln(out, " "+labelColor.Sprintf("(%s)", component.SourceFile.FileName))
	switch s := componentScope.(type) {
	case nil:
		fmt.Fprintf(out, "  %s none\n", labelColor.Sprint("scope:"))
		return nil
	case *scope.LocalModuleScope:
		fmt.Fprintf(out, "  %s ngmodule %s\n", labelColor.Sprint("scope:"), s.NgModule)
	case *scope.StandaloneScope:
		fmt.Fprintf(out, "  %s standalone\n", labelColor.Sprint("scope:"))
	}

	typeCheckScope := compilation.TypeCheckScopeOf(component)
	if typeCheckScope.IsPoisoned {
		fmt.Fprintf(out, "  %s\n", errorColor.Sprint("poisoned"))
	}
	var schemas []string
	for _, schema := range typeCheckScope.Schemas {
		schemas = append(schemas, schema.Name)
	}
	if len(schemas) > 0 {
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("schemas:"), strings.Join(schemas, ", "))
	}
	fmt.Fprintf(out, "  %s\n", labelColor.Sprint("directives:"))
	for _, dir := range typeCheckScope.Directives {
		fmt.Fprintf(out, "    %s %s\n", dir.GetRef().Node.Name, labelColor.Sprint(*dir.Selector()))
	}
	fmt.Fprintf(out, "  %s\n", labelColor.Sprint("pipes:"))
	for _, name := range typeCheckScope.PipeNames() {
		fmt.Fprintf(out, "    %s %s\n", name, labelColor.Sprint(typeCheckScope.Pipes[name].Ref.Node.Name))
	}
	return nil
}
