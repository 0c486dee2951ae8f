// Package errors provides structured, actionable error messages for Loom.
//
// The errors package implements an error system that:
//   - Shows exact source locations (file, line, column)
//   - Explains what went wrong in plain language
//   - Suggests how to fix issues with code examples
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - template: Template store and resolution errors (missing templates, parse failures)
//   - render: View pipeline errors (disposed views, unresolvable targets)
//   - server: Preview server errors (bind failures, missing directories)
//   - config: Configuration file errors (parse failures, invalid values)
//   - cli: Command usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "E001") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E002").
//	    WithLocation("templates/greeting.html", 3, 18).
//	    WithSuggestion("Close the action with }}")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E002: Template parse failed
//	//
//	//   templates/greeting.html:3:18
//	//
//	//      1 │ <div class="greeting">
//	//      2 │   <h1>Welcome</h1>
//	//   →  3 │   <p class="msg">Hello {{.Name</p>
//	//        │                  ^
//	//      4 │ </div>
//	//
//	//   Hint: Close the action with }}
//	//
//	//   Learn more: https://loom-ui.dev/docs/errors/E002
package errors
