package website

import (
	"embed"
	"html/template"
	"io/fs"
	"path/filepath"

	"furitingoasis/greenhouse/controller"
)

//go:embed "ui"
var Files embed.FS

type templateData struct {
	CurrentYear     int
	Form            any
	Flash           string
	IsAuthenticated bool
	CSRFToken       string
	Snapshot        *controller.Snapshot
	Params          []paramRow
}

type paramRow struct {
	Key    string
	Value  any
	Text   string
	Min    float64
	Max    float64
	Step   float64
	Unit   string
	Labels []string
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

var functions = template.FuncMap{
	"onOff": onOff,
	"inc":   func(i int) int { return i + 1 },
}

func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}

	pages, err := fs.Glob(Files, "ui/html/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := filepath.Base(page)
		if name == "base.html" {
			continue
		}
		ts, err := template.New(name).Funcs(functions).ParseFS(Files, "ui/html/base.html", page)
		if err != nil {
			return nil, err
		}
		cache[name] = ts
	}
	return cache, nil
}
