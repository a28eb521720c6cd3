// Package compiler groups the template-side packages used by the ngtsc scope and binding
// passes.
//
//   - core: schema metadata and the compiler version
//   - src/css: CSS selectors and the selector matcher used to match directives
//   - src/expression_parser: binding, action and microsyntax expressions
//   - src/output: external references and the source printer used for diagnostics
//   - src/render3: the template node tree
//   - src/render3/view: template conversion and the target binder
//   - src/util: parse locations and errors
//
// Templates are not parsed from HTML. They arrive as node trees declared in a
// compilation manifest and are converted by view.TemplateNodesToRender3Ast.
package compiler
