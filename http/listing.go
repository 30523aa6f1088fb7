package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sagarc03/stowgate"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Index of {{.Title}}</title>
    <style type="text/css">
      td { padding-right: 16px; text-align: right; font-family: monospace }
      td:nth-of-type(1) { text-align: left; }
      th { text-align: left; }
      @media (prefers-color-scheme: dark) {
        body {
          color: white;
          background-color: #1c1b22;
        }
        a {
          color: #3391ff;
        }
        a:visited {
          color: #C63B65;
        }
      }
    </style>
  </head>
  <body>
    <h1>Index of {{.Title}}</h1>
    <table>
      <tr><th>Filename</th><th>Modified</th><th>Size</th></tr>
{{- if .Parent}}
      <tr><td><a href="../">../</a></td><td>-</td><td>-</td></tr>
{{- end}}
{{- range .Rows}}
      <tr><td><a href="{{.Href}}">{{.Name}}</a></td><td>{{.Modified}}</td><td>{{.Size}}</td></tr>
{{- end}}
    </table>
  </body>
</html>
`))

type listingRow struct {
	Href     string
	Name     string
	Modified string
	Size     string
}

type listingPage struct {
	Title  string
	Parent bool
	Rows   []listingRow
}

func newListingPage(l *stowgate.Listing) listingPage {
	page := listingPage{
		Title:  listingTitle(l),
		Parent: !l.IsRoot(),
		Rows:   make([]listingRow, 0, len(l.Entries)),
	}

	for _, e := range l.Entries {
		if e.IsDirectory {
			page.Rows = append(page.Rows, listingRow{
				Href:     escapeName(e.Name) + "/",
				Name:     e.Name + "/",
				Modified: "-",
				Size:     "-",
			})
			continue
		}
		page.Rows = append(page.Rows, listingRow{
			Href:     escapeName(e.Name),
			Name:     e.Name,
			Modified: e.ModifiedAt.UTC().Format(http.TimeFormat),
			Size:     strconv.FormatInt(e.Size, 10),
		})
	}

	return page
}

// writeListing renders a directory index. HEAD gets the headers only.
func writeListing(w http.ResponseWriter, r *http.Request, l *stowgate.Listing) {
	hdr := w.Header()
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Cache-Control", NoStore)
	if !l.LastModified.IsZero() {
		hdr.Set("Last-Modified", l.LastModified.UTC().Format(http.TimeFormat))
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	var buf bytes.Buffer
	if err := listingTemplate.Execute(&buf, newListingPage(l)); err != nil {
		HandleError(w, r, err)
		return
	}

	hdr.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("write listing", "path", l.Path, "err", err)
	}
}

func listingTitle(l *stowgate.Listing) string {
	if l.IsRoot() {
		return "/"
	}
	return l.Path
}

// escapeName percent-encodes everything but unreserved characters, so a
// name like "c:notes" cannot be read as a URL scheme.
func escapeName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
