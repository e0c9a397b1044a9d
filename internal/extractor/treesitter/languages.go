package treesitter

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/tldr/internal/types"
)

// jsExportedAssignment matches `exports.NAME = function…`, `exports.NAME =
// async function…`, `exports.NAME = function*…`, and `module.exports.NAME =
// function…` (spec.md §4.2). The @function capture sits on the function
// value itself, not the assignment, so line numbers point at the function
// expression per spec. The `object` side is filtered to names containing
// "exports" in Go code (engine.go) rather than a query predicate, since
// that filter has to run regardless of whether the binding's query cursor
// evaluates text predicates.
const jsExportedAssignment = `
	(assignment_expression
		left: (member_expression
			object: (_) @_export.object
			property: (property_identifier) @function.name)
		right: [
			(function_expression "async"? @function.async parameters: (formal_parameters)? @function.params) @function
			(arrow_function "async"? @function.async parameters: (formal_parameters)? @function.params) @function
			(generator_function parameters: (formal_parameters)? @function.params) @function
		])
`

// init wires every tree-sitter-backed language into the registry. Each
// spec's funcQuery/importQuery carries over the grammar's symbol query
// near-verbatim; callQuery is new, added so the extractor can feed the
// resolver (C4) with intra-file call sites.
func init() {
	register(types.LangJavaScript, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		funcQuery: `
			(function_declaration
				"async"? @function.async
				name: (identifier) @function.name
				parameters: (formal_parameters)? @function.params) @function
			(generator_function_declaration
				name: (identifier) @function.name
				parameters: (formal_parameters)? @function.params) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [
					(arrow_function "async"? @function.async parameters: (formal_parameters)? @function.params) @function
					(function_expression "async"? @function.async parameters: (formal_parameters)? @function.params) @function
					(generator_function parameters: (formal_parameters)? @function.params) @function
				])
			(method_definition
				"async"? @function.async
				name: (property_identifier) @method.name
				parameters: (formal_parameters)? @function.params) @method
		` + jsExportedAssignment,
		classQuery: `(class_declaration name: (identifier) @class.name) @class`,
		callQuery: `
			(call_expression function: (identifier) @call.name)
			(call_expression function: (member_expression
				object: (_) @call.object
				property: (property_identifier) @call.name))
		`,
		importQuery: `(import_statement source: (string) @import.source)`,
	})

	register(types.LangTypeScript, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		funcQuery: `
			(function_declaration
				"async"? @function.async
				name: (identifier) @function.name
				parameters: (formal_parameters)? @function.params) @function
			(generator_function_declaration
				name: (identifier) @function.name
				parameters: (formal_parameters)? @function.params) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [
					(arrow_function "async"? @function.async parameters: (formal_parameters)? @function.params) @function
					(function_expression "async"? @function.async parameters: (formal_parameters)? @function.params) @function
					(generator_function parameters: (formal_parameters)? @function.params) @function
				])
			(method_definition
				"async"? @function.async
				name: (property_identifier) @method.name
				parameters: (formal_parameters)? @function.params) @method
			(function_expression
				name: (identifier) @function.name
				parameters: (formal_parameters)? @function.params) @function
		` + jsExportedAssignment,
		classQuery: `(class_declaration name: (type_identifier) @class.name) @class`,
		callQuery: `
			(call_expression function: (identifier) @call.name)
			(call_expression function: (member_expression
				object: (_) @call.object
				property: (property_identifier) @call.name))
		`,
		importQuery: `(import_statement source: (string) @import.source)`,
	})

	register(types.LangGo, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_go.Language()),
		funcQuery: `
			(function_declaration
				name: (identifier) @function.name
				parameters: (parameter_list)? @function.params) @function
			(method_declaration
				receiver: (parameter_list) @method.receiver
				name: (field_identifier) @method.name
				parameters: (parameter_list)? @function.params) @method
		`,
		callQuery: `
			(call_expression function: (identifier) @call.name)
			(call_expression function: (selector_expression
				operand: (_) @call.object
				field: (field_identifier) @call.name))
		`,
		importQuery: `(import_spec path: (interpreted_string_literal) @import.source)`,
	})

	register(types.LangPython, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_python.Language()),
		funcQuery: `
			(class_definition
				body: (block
					(function_definition
						"async"? @function.async
						name: (identifier) @method.name
						parameters: (parameters)? @function.params))) @method
			(function_definition
				"async"? @function.async
				name: (identifier) @function.name
				parameters: (parameters)? @function.params) @function
		`,
		classQuery: `(class_definition name: (identifier) @class.name) @class`,
		callQuery: `
			(call function: (identifier) @call.name)
			(call function: (attribute
				object: (_) @call.object
				attribute: (identifier) @call.name))
		`,
		importQuery: `(import_from_statement module_name: (dotted_name) @import.source)`,
	})

	register(types.LangRust, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		funcQuery: `
			(impl_item
				body: (declaration_list
					(function_item
						"async"? @function.async
						name: (identifier) @method.name
						parameters: (parameters)? @function.params))) @method
			(trait_item
				body: (declaration_list
					(function_item
						"async"? @function.async
						name: (identifier) @method.name
						parameters: (parameters)? @function.params))) @method
			(function_item
				"async"? @function.async
				name: (identifier) @function.name
				parameters: (parameters)? @function.params) @function
		`,
		callQuery: `
			(call_expression function: (identifier) @call.name)
			(call_expression function: (field_expression
				value: (_) @call.object
				field: (field_identifier) @call.name))
			(call_expression function: (scoped_identifier
				path: (_) @call.object
				name: (identifier) @call.name))
		`,
		importQuery: `(use_declaration argument: (_) @import.source)`,
	})

	register(types.LangCPP, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_cpp.Language()),
		funcQuery: `
			(function_definition declarator: (function_declarator
				declarator: (identifier) @function.name
				parameters: (parameter_list)? @function.params)) @function
			(function_definition declarator: (function_declarator
				declarator: (field_identifier) @method.name
				parameters: (parameter_list)? @function.params)) @method
		`,
		classQuery: `(class_specifier name: (type_identifier) @class.name) @class`,
		callQuery: `
			(call_expression function: (identifier) @call.name)
			(call_expression function: (field_expression
				argument: (_) @call.object
				field: (field_identifier) @call.name))
		`,
		importQuery: `(preproc_include path: (_) @import.source)`,
	})

	register(types.LangJava, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_java.Language()),
		funcQuery: `
			(method_declaration
				name: (identifier) @method.name
				parameters: (formal_parameters)? @function.params) @method
			(constructor_declaration
				name: (identifier) @method.name
				parameters: (formal_parameters)? @function.params) @method
		`,
		classQuery: `(class_declaration name: (identifier) @class.name) @class`,
		callQuery: `
			(method_invocation name: (identifier) @call.name object: (_) @call.object)
			(method_invocation name: (identifier) @call.name)
		`,
		importQuery: `(import_declaration (scoped_identifier) @import.source)`,
	})

	register(types.LangCSharp, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_csharp.Language()),
		funcQuery: `
			(method_declaration
				name: (identifier) @method.name
				parameters: (parameter_list)? @function.params) @method
			(constructor_declaration
				name: (identifier) @method.name
				parameters: (parameter_list)? @function.params) @method
		`,
		classQuery: `(class_declaration name: (identifier) @class.name) @class`,
		callQuery: `
			(invocation_expression function: (identifier) @call.name)
			(invocation_expression function: (member_access_expression
				expression: (_) @call.object
				name: (identifier) @call.name))
		`,
		importQuery: `(using_directive (qualified_name) @import.source)`,
	})

	register(types.LangPHP, spec{
		lang: tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()),
		funcQuery: `
			(function_definition
				name: (name) @function.name
				parameters: (formal_parameters)? @function.params) @function
			(method_declaration
				name: (name) @method.name
				parameters: (formal_parameters)? @function.params) @method
		`,
		classQuery: `(class_declaration name: (name) @class.name) @class`,
		callQuery: `
			(function_call_expression function: (name) @call.name)
			(member_call_expression
				object: (_) @call.object
				name: (name) @call.name)
		`,
		importQuery: `(namespace_use_clause (qualified_name) @import.source)`,
	})
}
