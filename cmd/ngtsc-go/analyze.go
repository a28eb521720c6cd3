package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/diagnostics"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/program"
	"ngtsc-go/packages/compiler-cli/src/ngtsc/scope"
)

type diagnosticPayload struct {
	Code     string   `json:"code"`
	Category string   `json:"category"`
	File     string   `json:"file"`
	Node     string   `json:"node"`
	Message  string   `json:"message"`
	Related  []string `json:"related,omitempty"`
}

type componentPayload struct {
	Component      string   `json:"component"`
	Scope          string   `json:"scope"`
	NgModule       string   `json:"ngModule,omitempty"`
	Poisoned       bool     `json:"poisoned,omitempty"`
	RemoteScope    bool     `json:"remoteScope,omitempty"`
	Directives     []string `json:"directives"`
	Pipes          []string `json:"pipes"`
	TemplateErrors []string `json:"templateErrors,omitempty"`
}

type analysisPayload struct {
	Compilation string              `json:"compilation"`
	Components  []componentPayload  `json:"components"`
	Diagnostics []diagnosticPayload `json:"diagnostics"`
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [flags] <manifest>",
		Short: "Bind every component template and report scope diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (pretty|json)", format)
	}

	compilation, err := loadCompilation(cmd, args[0])
	if err != nil {
		return err
	}
	payload := analysisPayload{Compilation: compilation.ID}
	diags := compilation.Diagnostics()
	var analyses []*program.ComponentAnalysis
	for _, component := range compilation.Components() {
		analysis, err := compilation.AnalyzeComponent(component)
		if err != nil {
			return err
		}
		analyses = append(analyses, analysis)
		payload.Components = append(payload.Components, componentPayloadOf(analysis))
		diags = append(diags, analysis.Diagnostics...)
	}
	for _, diag := range diags {
		payload.Diagnostics = append(payload.Diagnostics, diagnosticPayloadOf(diag))
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(payload); err != nil {
			return err
		}
	} else {
		for i, analysis := range analyses {
			printComponent(out, payload.Components[i], analysis)
		}
		printDiagnostics(out, diags)
	}
	if diagnostics.HasErrors(diags) {
		return errDiagnostics
	}
	return nil
}

func componentPayloadOf(analysis *program.ComponentAnalysis) componentPayload {
	payload := componentPayload{
		Component:      analysis.Component.String(),
		Scope:          "none",
		Poisoned:       analysis.IsPoisoned,
		RemoteScope:    analysis.RemoteScope,
		Directives:     []string{},
		Pipes:          []string{},
		TemplateErrors: analysis.TemplateErrors,
	}
	if analysis.Scope != nil {
		payload.Scope = analysis.Scope.Kind().String()
	}
	if s, ok := analysis.Scope.(*scope.LocalModuleScope); ok {
		payload.NgModule = s.NgModule.String()
	}
	for _, dir := range analysis.UsedDirectives {
		payload.Directives = append(payload.Directives, dir.GetRef().Node.Name)
	}
	for _, pipe := range analysis.UsedPipes {
		payload.Pipes = append(payload.Pipes, pipe.Name)
	}
	return payload
}

func diagnosticPayloadOf(diag *diagnostics.Diagnostic) diagnosticPayload {
	payload := diagnosticPayload{
		Code:     diagnostics.FormatCode(diag.Code),
		Category: diag.Category.String(),
		File:     diag.FileName,
		Node:     diag.Node,
		Message:  diag.MessageText,
	}
	for _, info := range diag.Related {
		payload.Related = append(payload.Related, fmt.Sprintf("%s (%s): %s", info.FileName, info.Node, info.MessageText))
	}
	return payload
}

func printComponent(out io.Writer, payload componentPayload, analysis *program.ComponentAnalysis) {
	componentColor.Fprint(out, analysis.Component.Name)
	fmt.Fprintf(out, " %s\n", labelColor.Sprintf("(%s)", analysis.Component.SourceFile.FileName))
	scopeLine := payload.Scope
	if payload.NgModule != "" {
		scopeLine += " " + analysis.Scope.(*scope.LocalModuleScope).NgModule.Name
	}
	if payload.Poisoned {
		scopeLine += " " + errorColor.Sprint("poisoned")
	}
	if payload.RemoteScope {
		scopeLine += " remote"
	}
	fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("scope:"), scopeLine)
	fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("directives:"), strings.Join(payload.Directives, ", "))
	fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("pipes:"), strings.Join(payload.Pipes, ", "))
	for _, templateError := range payload.TemplateErrors {
		fmt.Fprintf(out, "  %s %s\n", errorColor.Sprint("template:"), templateError)
	}
}

func printDiagnostics(out io.Writer, diags []*diagnostics.Diagnostic) {
	if len(diags) == 0 {
		okColor.Fprintln(out, "no diagnostics")
		return
	}
	for _, diag := range diags {
		fmt.Fprintf(out, "%s %s %s: %s\n", diag.FileName, errorColor.Sprint(diag.Category.String()), diagnostics.FormatCode(diag.Code), diag.MessageText)
		for _, info := range diag.Related {
			fmt.Fprintf(out, "  %s\n", labelColor.Sprintf("%s (%s): %s", info.FileName, info.Node, info.MessageText))
		}
	}
	fmt.Fprintf(out, "%d diagnostic(s)\n", len(diags))
}
