// Package dashboard renders the server-side HTML pages for browsing reports.
package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iksnae/session-report/internal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders dashboard pages
type Renderer struct {
	pages map[string]*template.Template
	now   func() time.Time
}

// New parses the embedded page templates
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"roleLabel":  RoleLabel,
		"formatTime": internal.FormatTimestamp,
	}

	r := &Renderer{
		pages: make(map[string]*template.Template),
		now:   time.Now,
	}
	for _, page := range []string{"index.html", "detail.html", "notfound.html"} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// RoleLabel returns the display label for a message role. A Caser keeps
// state between calls, so each call builds its own.
func RoleLabel(role string) string {
	return cases.Title(language.English, cases.NoLower).String(role)
}

type listItem struct {
	ID        string
	SessionID string
	Timestamp time.Time
}

type indexView struct {
	Reports []listItem
	Total   int
	Today   int
}

// Index renders the report list with total and today counts
func (r *Renderer) Index(w io.Writer, reports []*internal.Report) error {
	now := r.now()
	view := indexView{
		Reports: make([]listItem, 0, len(reports)),
		Total:   len(reports),
	}
	for _, report := range reports {
		if internal.IsToday(report.Timestamp, now) {
			view.Today++
		}
		view.Reports = append(view.Reports, listItem{
			ID:        report.ID,
			SessionID: report.SessionID,
			Timestamp: report.Timestamp,
		})
	}
	return r.execute(w, "index.html", view)
}

type messageView struct {
	Role string
	Text string
}

type detailView struct {
	ID           string
	SessionID    string
	Timestamp    time.Time
	HasRaw       bool
	Metadata     *internal.Metadata
	Messages     []messageView
	Unstructured bool
	Dump         string
}

// Detail renders a single report with its normalized conversation
func (r *Renderer) Detail(w io.Writer, report *internal.Report) error {
	return r.execute(w, "detail.html", newDetailView(report))
}

func newDetailView(report *internal.Report) detailView {
	view := detailView{
		ID:        report.ID,
		SessionID: report.SessionID,
		Timestamp: report.Timestamp,
		HasRaw:    report.HasRawJSONL(),
	}

	switch n := internal.Normalize(report.Document()).(type) {
	case internal.Entries:
		if !n.Metadata.IsEmpty() {
			md := n.Metadata
			view.Metadata = &md
		}
		for _, entry := range n.Present() {
			view.Messages = append(view.Messages, messageView{Role: entry.Role, Text: entry.Text})
		}
	case internal.Unstructured:
		view.Unstructured = true
		view.Dump = n.Text
	}
	return view
}

// NotFound renders the missing-report page
func (r *Renderer) NotFound(w io.Writer, id string) error {
	return r.execute(w, "notfound.html", struct{ ID string }{ID: id})
}

func (r *Renderer) execute(w io.Writer, page string, data interface{}) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page: %s", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
