// Package template provides a Mustache/Handlebars style template engine for
// rendering text and HTML from a data context.
//
// Rendering runs ten text passes in a fixed order over one working copy of
// the template: comments, partials, standalone-line trimming, sections,
// inverted sections, if, unless, each, triple-brace and double-brace
// interpolation. Every pass handles all directives of its kind before the
// next pass starts, so pass order is part of the template language.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	data := map[string]interface{}{
//	    "user": map[string]interface{}{
//	        "name":  "ada",
//	        "email": "ada@example.com",
//	    },
//	    "items": []interface{}{"a", "b"},
//	}
//
//	tmpl := "Hello {{user.name | capitalize}}\n{{#each items}}[{{@index}}:{{this}}]{{/each}}"
//	result, err := engine.Render(tmpl, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: Hello Ada
//	//         [0:a][1:b]
//
// Built-in helpers:
//   - default - Fallback when the value is undefined, null or ""
//   - json - JSON encoding with optional indent (not escaped)
//   - date - Date formatting with YYYY MM DD HH mm ss tokens
//   - upper, lower, capitalize, trim - String transforms
//   - length - Length of a list, string or map
//   - join - Join list elements with a separator
//   - number - Locale aware number formatting
//   - eq, ne, gt, gte, lt, lte - Comparisons answering "true" or ""
//   - raw - Mark a value as safe
//
// Example with helpers:
//
//	{{name | default:'anonymous'}}           # "anonymous" if name is empty
//	{{created | date:'DD/MM/YYYY HH:mm'}}     # "05/01/2024 13:45"
//	{{total | number:'de-DE'}}                # "1.234,5"
//	{{#if status | eq:'active'}}...{{/if}}    # Conditional
//	{{{ body }}} or {{ body | raw }}          # Unescaped output
//
// Strict mode turns unknown helpers and partials into ErrUnknownHelper and
// ErrUnknownPartial; strict variables mode turns missing {{ }} values into
// ErrUnknownVariable. Every other failure renders as empty output.
package template
