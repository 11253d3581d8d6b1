// Package docs renders a static documentation site for a Reef project:
// one HTML page per documented module, an index page built from the project
// README, the static assets the pages link, and a search index script.
package docs

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/quick"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"reef/internal/index"
	"reef/internal/project"
)

//go:embed templates
var templateFS embed.FS

var (
	pageTemplate   = template.Must(template.ParseFS(templateFS, "templates/layout.html.tmpl", "templates/page.html.tmpl"))
	moduleTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html.tmpl", "templates/module.html.tmpl"))
)

// DocFile is one generated artifact, addressed relative to the site root.
type DocFile struct {
	Path    string
	Content string
}

// Options configures one site generation pass.
type Options struct {
	// Version is the reef toolchain version stamped into page footers.
	Version string
	// Timestamp marks when the site was generated; zero means now.
	Timestamp time.Time
	// Jobs limits page rendering parallelism; <= 0 means one per module.
	Jobs int
}

type docLink struct {
	Name string
	Path string
}

// searchEntry is one record of the client-side search index.
type searchEntry struct {
	Doc     string `json:"doc"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type pageData struct {
	ProjectName    string
	ProjectVersion string
	PageTitle      string
	ToolVersion    string
	Breadcrumbs    string
	Modules        []docLink
	SourceName     string
	SourceURL      string
	Content        template.HTML
	Timestamp      string
}

type declData struct {
	Name      string
	Signature template.HTML
	Doc       template.HTML
}

type typeData struct {
	declData
	Constructors []declData
}

type moduleData struct {
	pageData
	ModuleDocs template.HTML
	Values     []declData
	Constants  []declData
	Types      []typeData
}

// Generate renders the whole documentation site for a project. Modules with
// no public declarations get no page and no search entries.
func Generate(ctx context.Context, root string, manifest project.Manifest, idx *index.Index, opts Options) ([]DocFile, error) {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	timestamp := fmt.Sprintf("%d", ts.Unix())

	documented := make([]*index.Module, 0, idx.Len())
	for _, mod := range idx.Modules() {
		if !mod.IsEmpty() {
			documented = append(documented, mod)
		}
	}
	links := make([]docLink, 0, len(documented))
	for _, mod := range documented {
		links = append(links, docLink{Name: mod.Name, Path: modulePagePath(mod.Name)})
	}

	sourceName, sourceURL := "", ""
	if url := manifest.Repository.SourceURL(); url != "" {
		sourceName = manifest.Repository.User + "/" + manifest.Repository.Project
		sourceURL = url
	}
	base := pageData{
		ProjectName:    manifest.Project.Name,
		ProjectVersion: manifest.Project.Version,
		ToolVersion:    opts.Version,
		Modules:        links,
		SourceName:     sourceName,
		SourceURL:      sourceURL,
		Timestamp:      timestamp,
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = len(documented)
	}

	pages := make([]DocFile, len(documented))
	entries := make([][]searchEntry, len(documented))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, mod := range documented {
		i, mod := i, mod
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, idxs, err := renderModule(base, mod)
			if err != nil {
				return err
			}
			pages[i] = page
			entries[i] = idxs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []DocFile
	var search []searchEntry
	for i := range pages {
		files = append(files, pages[i])
		search = append(search, entries[i]...)
	}

	files = append(files, staticAssets(search)...)

	readme, err := renderReadme(root, base)
	if err != nil {
		return nil, err
	}
	files = append(files, readme)

	return files, nil
}

func modulePagePath(name string) string {
	return name + ".html"
}

func renderModule(base pageData, mod *index.Module) (DocFile, []searchEntry, error) {
	data := moduleData{
		pageData:   base,
		ModuleDocs: renderMarkdown(mod.Docs),
	}
	data.PageTitle = mod.Name
	data.Breadcrumbs = breadcrumbs(mod.Name)

	var entries []searchEntry
	push := func(title, doc string) {
		entries = append(entries, searchEntry{
			Doc:     mod.Name,
			Title:   html.EscapeString(title),
			Content: searchText(doc),
			URL:     modulePagePath(mod.Name) + "#" + title,
		})
	}

	for _, v := range mod.Values {
		data.Values = append(data.Values, declData{
			Name:      v.Name,
			Signature: highlight(v.Signature),
			Doc:       renderMarkdown(v.Doc),
		})
		push(v.Name, v.Doc)
	}
	for _, c := range mod.Constants {
		data.Constants = append(data.Constants, declData{
			Name:      c.Name,
			Signature: highlight(c.Definition),
			Doc:       renderMarkdown(c.Doc),
		})
		push(c.Name, c.Doc)
	}
	for _, t := range mod.Types {
		td := typeData{declData: declData{
			Name:      t.Name,
			Signature: highlight(t.Definition),
			Doc:       renderMarkdown(t.Doc),
		}}
		push(t.Name, t.Doc)
		for _, ctor := range t.Constructors {
			td.Constructors = append(td.Constructors, declData{
				Name:      ctor.Name,
				Signature: highlight(ctor.Definition),
				Doc:       renderMarkdown(ctor.Doc),
			})
			push(ctor.Name, ctor.Doc)
		}
		data.Types = append(data.Types, td)
	}
	if mod.Docs != "" {
		entries = append(entries, searchEntry{
			Doc:     mod.Name,
			Title:   html.EscapeString(mod.Name),
			Content: searchText(mod.Docs),
			URL:     modulePagePath(mod.Name),
		})
	}

	var buf bytes.Buffer
	if err := moduleTemplate.ExecuteTemplate(&buf, "layout", data); err != nil {
		return DocFile{}, nil, fmt.Errorf("render module %s: %w", mod.Name, err)
	}
	return DocFile{Path: modulePagePath(mod.Name), Content: buf.String()}, entries, nil
}

// renderReadme builds index.html from the project README. A missing README
// yields an index page with empty content, not an error.
func renderReadme(root string, base pageData) (DocFile, error) {
	content, err := os.ReadFile(filepath.Join(root, "README.md"))
	if err != nil && !os.IsNotExist(err) {
		return DocFile{}, err
	}

	data := base
	data.PageTitle = base.ProjectName
	data.Breadcrumbs = "."
	data.Content = renderMarkdown(string(content))

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "layout", data); err != nil {
		return DocFile{}, fmt.Errorf("render index page: %w", err)
	}
	return DocFile{Path: "index.html", Content: buf.String()}, nil
}

func staticAssets(search []searchEntry) []DocFile {
	sort.Slice(search, func(i, j int) bool {
		if search[i].URL != search[j].URL {
			return search[i].URL < search[j].URL
		}
		return search[i].Title < search[j].Title
	})
	if search == nil {
		search = []searchEntry{}
	}
	payload, _ := json.Marshal(search)

	return []DocFile{
		{Path: "css/index.css", Content: mustAsset("templates/css/index.css")},
		{Path: "js/search.js", Content: mustAsset("templates/js/search.js")},
		{Path: "search-data.js", Content: fmt.Sprintf("window.Reef.initSearch(%s);", payload)},
	}
}

func mustAsset(path string) string {
	data, err := templateFS.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func renderMarkdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<p>" + html.EscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}

// highlight renders a declaration signature with syntax coloring. Chroma has
// no Reef lexer; the Rust lexer is the closest match for the surface syntax.
func highlight(code string) template.HTML {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, "rust", "html", "github"); err != nil {
		return template.HTML("<pre><code>" + html.EscapeString(code) + "</code></pre>")
	}
	return template.HTML(buf.String())
}

// searchText flattens doc prose into a normalized, escaped search token
// stream so index lookups agree across composed/decomposed unicode input.
func searchText(doc string) string {
	flat := strings.Join(strings.Fields(doc), " ")
	return html.EscapeString(norm.NFC.String(flat))
}

func breadcrumbs(moduleName string) string {
	depth := strings.Count(moduleName, "/")
	if depth == 0 {
		return "."
	}
	parts := make([]string, depth)
	for i := range parts {
		parts[i] = ".."
	}
	return strings.Join(parts, "/")
}

// WriteAll writes every generated file below outDir, creating directories as
// needed.
func WriteAll(outDir string, files []DocFile) error {
	for _, f := range files {
		dst := filepath.Join(outDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
