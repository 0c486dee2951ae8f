package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Template Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryTemplate,
		Message:  "Template not found",
		Detail:   "The template store has no entry with the requested name. Check the template name and the store's root directory or prefix.",
		DocURL:   "https://loom-ui.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryTemplate,
		Message:  "Template parse failed",
		Detail:   "The template source contains a syntax error and could not be parsed.",
		DocURL:   "https://loom-ui.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryTemplate,
		Message:  "Template execution failed",
		Detail:   "The template parsed but failed while executing against the supplied data. A field referenced in the template is likely missing or has the wrong type.",
		DocURL:   "https://loom-ui.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryTemplate,
		Message:  "Template store unreachable",
		Detail:   "The template store could not be read. For directory stores check that the path exists; for S3 stores check the bucket, prefix, and credentials.",
		DocURL:   "https://loom-ui.dev/docs/errors/E004",
	},
	"E005": {
		Category: CategoryTemplate,
		Message:  "Data file is not valid JSON",
		Detail:   "The data file supplied to the render command could not be decoded as JSON.",
		DocURL:   "https://loom-ui.dev/docs/errors/E005",
	},

	// ============================================
	// Render Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryRender,
		Message:  "View render failed",
		Detail:   "The view's render pipeline returned an error. See the wrapped error for the failing stage.",
		DocURL:   "https://loom-ui.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryRender,
		Message:  "View already disposed",
		Detail:   "The view has been disposed and can no longer render or handle events. Create a new view instead of reusing a disposed one.",
		DocURL:   "https://loom-ui.dev/docs/errors/E021",
	},
	"E022": {
		Category: CategoryRender,
		Message:  "Attachment target not found",
		Detail:   "The selector passed to AppendTo, PrependTo, or Replace matched no element in the document.",
		DocURL:   "https://loom-ui.dev/docs/errors/E022",
	},

	// ============================================
	// Server Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryServer,
		Message:  "Server failed to start",
		Detail:   "The preview server could not bind its listen address.",
		DocURL:   "https://loom-ui.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryServer,
		Message:  "Address already in use",
		Detail:   "Another process is listening on the configured address. Stop it or choose a different port in loom.json.",
		DocURL:   "https://loom-ui.dev/docs/errors/E041",
	},
	"E042": {
		Category: CategoryServer,
		Message:  "Static directory not found",
		Detail:   "The configured static directory does not exist. Create it or update the static.dir setting.",
		DocURL:   "https://loom-ui.dev/docs/errors/E042",
	},

	// ============================================
	// Config Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file exists but could not be parsed.",
		DocURL:   "https://loom-ui.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryConfig,
		Message:  "Not a loom project",
		Detail:   "No loom.json or loom.yaml was found in this directory or any parent directory.",
		DocURL:   "https://loom-ui.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryConfig,
		Message:  "Invalid server port",
		Detail:   "The server port must be between 1 and 65535.",
		DocURL:   "https://loom-ui.dev/docs/errors/E062",
	},
	"E063": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json or .yaml.",
		DocURL:   "https://loom-ui.dev/docs/errors/E063",
	},
	"E064": {
		Category: CategoryConfig,
		Message:  "Template directory not found",
		Detail:   "The configured template directory does not exist. Create it or update the templates.dir setting.",
		DocURL:   "https://loom-ui.dev/docs/errors/E064",
	},
	"E065": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn, or error.",
		DocURL:   "https://loom-ui.dev/docs/errors/E065",
	},

	// ============================================
	// CLI Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryCLI,
		Message:  "Missing required argument",
		Detail:   "The command requires an argument that was not provided. Run the command with --help to see its usage.",
		DocURL:   "https://loom-ui.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryCLI,
		Message:  "Cannot write output",
		Detail:   "The output file could not be written. Check the path and directory permissions.",
		DocURL:   "https://loom-ui.dev/docs/errors/E081",
	},
	"E082": {
		Category: CategoryCLI,
		Message:  "Invalid project name",
		Detail:   "Project names may contain lowercase letters, digits, hyphens, and underscores, and must start with a letter.",
		DocURL:   "https://loom-ui.dev/docs/errors/E082",
	},
	"E083": {
		Category: CategoryCLI,
		Message:  "Directory already exists",
		Detail:   "A file or directory with this name already exists. Choose a different project name or remove the existing directory.",
		DocURL:   "https://loom-ui.dev/docs/errors/E083",
	},
	"E084": {
		Category: CategoryCLI,
		Message:  "Unknown project template",
		Detail:   "The requested project template is not one of the built-in templates.",
		DocURL:   "https://loom-ui.dev/docs/errors/E084",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
