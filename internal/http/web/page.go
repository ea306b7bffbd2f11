package web

import (
	"embed"
	"html/template"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/docx2xlsx/internal/form"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// refreshSeconds is how often the page reloads itself while uploads run.
const refreshSeconds = 1

type recordView struct {
	Name     string
	Size     string
	Progress int
	Status   form.Status
	Error    string
	Added    int
	Total    int
}

type pageView struct {
	Alert       string
	Records     []recordView
	MaxFiles    int
	Uploading   bool
	Refresh     int
	CanSelect   bool
	CanStart    bool
	CanReset    bool
	CanDownload bool
}

func newPageView(s form.State, alert string) pageView {
	v := pageView{
		Alert:       alert,
		MaxFiles:    form.MaxFiles,
		Uploading:   s.Uploading,
		CanSelect:   s.CanSelect(),
		CanStart:    s.CanStart(),
		CanReset:    s.CanReset(),
		CanDownload: s.CanDownload(),
	}

	if s.Uploading {
		v.Refresh = refreshSeconds
	}

	for _, r := range s.Records {
		v.Records = append(v.Records, recordView{
			Name:     r.Name,
			Size:     humanize.Bytes(uint64(r.Size)),
			Progress: r.Progress,
			Status:   r.Status,
			Error:    r.Error,
			Added:    r.Added,
			Total:    r.Total,
		})
	}

	return v
}
