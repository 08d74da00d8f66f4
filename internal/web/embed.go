package web

import (
	"embed"
	"io/fs"
	"net/http"
)

// Directories of the embedded assets. In dev mode templates are read from
// devTemplateDir instead, relative to the repository root.
const (
	staticDir      = "static"
	templateDir    = "templates"
	devTemplateDir = "./internal/web/" + templateDir
)

var (
	//go:embed static
	embeddedStatic embed.FS

	//go:embed templates
	embeddedTemplates embed.FS
)

// staticFS serves the embedded static tree from its root, so /static/css/x.css
// maps to static/css/x.css.
func staticFS() http.FileSystem {
	return subFS(embeddedStatic, staticDir)
}

// templateFS holds the page templates and the layouts/ directory.
func templateFS() http.FileSystem {
	return subFS(embeddedTemplates, templateDir)
}

func subFS(fsys embed.FS, dir string) http.FileSystem {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		// dir is a compile time constant matching a go:embed directive
		panic(err)
	}

	return http.FS(sub)
}
