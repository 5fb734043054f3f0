package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/overlay/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Hydration Hints (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryHydration,
		Message:  "Hydration failed because the server rendered HTML didn't match the client",
		Detail:   "The initial UI produced on the client differs from the markup the server sent. Compare the two sides in the diff below.",
		DocURL:   docBase + "E040",
	},
	"E041": {
		Category: CategoryHydration,
		Message:  "Hydration mismatch: text content differs",
		Detail:   "Server and client rendered different text. Values like Date.now() or Math.random() used during render are a common cause.",
		DocURL:   docBase + "E041",
	},
	"E042": {
		Category: CategoryHydration,
		Message:  "Hydration mismatch: attribute differs",
		Detail:   "An attribute value differs between server and client rendering.",
		DocURL:   docBase + "E042",
	},
	"E043": {
		Category: CategoryHydration,
		Message:  "Hydration mismatch: missing element",
		Detail:   "An element exists on the server that wasn't expected by the client, or vice versa.",
		DocURL:   docBase + "E043",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The configuration file passed with --config does not exist.",
		DocURL:   docBase + "E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The configuration file could not be parsed as JSON or TOML.",
		DocURL:   docBase + "E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid diff view",
		Detail:   "report.diffView must be \"split\" or \"pretty\".",
		DocURL:   docBase + "E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid diff context",
		Detail:   "report.diffContext must be zero or a positive number of lines.",
		DocURL:   docBase + "E123",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid framework rule",
		Detail:   "Each entry in frameworks needs a name and a valid regular expression in packages.",
		DocURL:   docBase + "E124",
	},
	"E125": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "dev.port must be between 1 and 65535.",
		DocURL:   docBase + "E125",
	},
	"E126": {
		Category: CategoryConfig,
		Message:  "Invalid poll interval",
		Detail:   "dev.pollInterval must be a positive duration such as \"250ms\".",
		DocURL:   docBase + "E126",
	},

	// ============================================
	// CLI and Input Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Port already in use",
		Detail:   "The dev server port is already being used by another process.",
		DocURL:   docBase + "E140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Input file not found",
		Detail:   "The error document passed with --input does not exist.",
		DocURL:   docBase + "E141",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Input file unreadable",
		Detail:   "The error document exists but could not be read.",
		DocURL:   docBase + "E142",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Unknown output format",
		Detail:   "--format must be \"html\" or \"text\".",
		DocURL:   docBase + "E143",
	},
	"E144": {
		Category: CategoryCLI,
		Message:  "Output file not writable",
		Detail:   "The file passed with --out could not be created.",
		DocURL:   docBase + "E144",
	},
	"E145": {
		Category: CategoryCLI,
		Message:  "Markup file unreadable",
		Detail:   "One of the files passed to diff could not be read.",
		DocURL:   docBase + "E145",
	},
	"E146": {
		Category: CategoryCLI,
		Message:  "Browser open failed",
		Detail:   "The system browser could not be launched. Open the printed URL manually.",
		DocURL:   docBase + "E146",
	},
	"E147": {
		Category: CategoryCLI,
		Message:  "Invalid diff view flag",
		Detail:   "--view must be \"split\" or \"pretty\".",
		DocURL:   docBase + "E147",
	},
	"E148": {
		Category: CategoryCLI,
		Message:  "Report rendering failed",
		Detail:   "The report could not be written.",
		DocURL:   docBase + "E148",
	},
	"E149": {
		Category: CategoryCLI,
		Message:  "Invalid input document",
		Detail:   "The input must be a JSON object with an \"error\" field and an optional \"hydration\" field holding ssrHtml and csrHtml.",
		DocURL:   docBase + "E149",
	},
	"E150": {
		Category: CategoryCLI,
		Message:  "File watcher failed",
		Detail:   "The dev server could not watch the input or config file for changes.",
		DocURL:   docBase + "E150",
	},
	"E151": {
		Category: CategoryCLI,
		Message:  "Unknown init template",
		Detail:   "vango-overlay init accepts the \"toml\" and \"json\" templates.",
		DocURL:   docBase + "E151",
	},
	"E152": {
		Category: CategoryCLI,
		Message:  "File already exists",
		Detail:   "init does not overwrite existing files. Pass --force to replace them.",
		DocURL:   docBase + "E152",
	},
	"E153": {
		Category: CategoryCLI,
		Message:  "Could not write scaffold",
		Detail:   "A file from the init template could not be rendered or written.",
		DocURL:   docBase + "E153",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
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
