package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Render errors (B100-B149)
	// ============================================

	"B100": {Category: CategoryRender, Message: "Render function failed"},
	"B101": {Category: CategoryRender, Message: "Unknown component"},
	"B102": {Category: CategoryRender, Message: "Render function returned no block"},
	"B103": {Category: CategoryRender, Message: "Render function panicked"},
	"B104": {Category: CategoryRender, Message: "Component type has no setup"},

	// ============================================
	// Lifecycle errors (B150-B199)
	// ============================================

	"B150": {Category: CategoryLifecycle, Message: "Asynchronous hook failed"},

	// ============================================
	// Template authoring errors (B200-B249)
	// ============================================

	"B200": {Category: CategoryTemplate, Message: "Missing event name in handler binding"},
	"B201": {Category: CategoryTemplate, Message: "Missing handler method"},

	// ============================================
	// Configuration errors (B300-B349)
	// ============================================

	"B300": {Category: CategoryConfig, Message: "Config file not found"},
	"B301": {Category: CategoryConfig, Message: "Invalid config file"},
	"B302": {Category: CategoryConfig, Message: "Unsupported config format"},
	"B303": {Category: CategoryConfig, Message: "Invalid config value"},

	// ============================================
	// CLI errors (B400-B449)
	// ============================================

	"B400": {Category: CategoryCLI, Message: "Demo failed"},
	"B401": {Category: CategoryCLI, Message: "Server failed"},
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template Template) {
	registry[code] = template
}
