package server

import (
	"embed"
	"html/template"

	"github.com/reflectai/reflectai/internal/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"progressBar": func(p int) string { return render.ProgressBar(p, 20) },
	"iconGlyph":   iconGlyph,
}

// iconGlyph maps icon names to an emoji for the presentation page.
func iconGlyph(icon string) string {
	switch icon {
	case "User":
		return "👤"
	case "Target":
		return "🎯"
	case "Layers":
		return "🗂"
	case "BookOpen":
		return "📖"
	case "Lightbulb":
		return "💡"
	case "Zap":
		return "⚡"
	case "Star":
		return "⭐"
	}
	return ""
}
