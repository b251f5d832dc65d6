package info

import (
	_ "embed"
	"html/template"
)

// Viewer selects the HTML documentation UI.
type Viewer string

// Supported viewers.
const (
	ViewerStoplight Viewer = "stoplight"
	ViewerSwaggerUI Viewer = "swaggerui"
)

var (
	//go:embed assets/stoplight.html
	stoplightHTML string
	//go:embed assets/swaggerui.html
	swaggerUIHTML string

	viewerTemplates = map[Viewer]*template.Template{
		ViewerStoplight: template.Must(template.New("stoplight").Parse(stoplightHTML)),
		ViewerSwaggerUI: template.Must(template.New("swaggerui").Parse(swaggerUIHTML)),
	}
)

// viewerData is passed to viewer templates.
type viewerData struct {
	Title   string
	SpecURL string
}
