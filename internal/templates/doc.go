// Package templates provides project scaffolding for the loom new command.
//
// Each template is a named set of files rendered against a Config.
//
// # Available Templates
//
//   - minimal: Templates and config only, served with loom serve
//   - full: A Go program embedding Loom, with a live event handler
//
// # Usage
//
//	tmpl, err := templates.Get("minimal")
//	if err != nil {
//	    return err
//	}
//	if err := tmpl.Create(projectDir, cfg); err != nil {
//	    return err
//	}
//
// # Placeholders
//
// Scaffold files use [[ ]] delimiters for substitution:
//
//	[[.ProjectName]]   - Name of the project
//	[[.ModulePath]]    - Go module path
//	[[.Description]]   - Project description
//
// The generated files are often html/template sources themselves, so
// {{ }} actions in them pass through the scaffolder untouched.
package templates
