package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/storage"
)

const (
	// Title of the generated page.
	Title = "Esport ICS Calendars"
	// RepoURL is linked from the header and footer.
	RepoURL = "https://github.com/snutij/esport_ics"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// Page is the data rendered into index.html.
type Page struct {
	Title       string
	RepoURL     string
	GeneratedAt time.Time
	Games       []GameSection
}

// GameSection is one collapsible game block.
type GameSection struct {
	Folder string
	Name   string
	Accent template.CSS
	Teams  []TeamCard
}

// TeamCard is one subscribable calendar.
type TeamCard struct {
	Slug       string
	Name       string
	SearchName string
	URL        string
	Events     int
	Upcoming   int
}

// Build assembles the page model from a scanned calendar tree.
//
// Games are ordered by their registry position, with unknown folders last
// in lexical order; they fall back to the folder name and the default
// accent. Calendars are ordered by lowercase name. Folders without
// calendars are omitted.
func Build(games []storage.GameDir, reg *config.Registry, publicURL string) *Page {
	page := &Page{
		Title:   Title,
		RepoURL: RepoURL,
	}

	dirs := append([]storage.GameDir(nil), games...)
	sort.SliceStable(dirs, func(i, j int) bool {
		pi, pj := reg.Position(dirs[i].Folder), reg.Position(dirs[j].Folder)
		if pi != pj {
			return pi < pj
		}
		return dirs[i].Folder < dirs[j].Folder
	})

	for _, dir := range dirs {
		if len(dir.Calendars) == 0 {
			continue
		}

		name, accent := reg.Display(dir.Folder)
		if !config.ValidAccent(accent) {
			accent = config.DefaultAccent
		}
		section := GameSection{
			Folder: dir.Folder,
			Name:   name,
			Accent: template.CSS(accent),
		}

		for _, cal := range dir.Calendars {
			section.Teams = append(section.Teams, TeamCard{
				Slug:       cal.Slug,
				Name:       cal.Name,
				SearchName: strings.ToLower(cal.Name),
				URL:        CalendarURL(publicURL, dir.Folder, cal.Slug),
				Events:     cal.Events,
				Upcoming:   cal.Upcoming,
			})
		}
		sort.SliceStable(section.Teams, func(i, j int) bool {
			ni, nj := section.Teams[i].SearchName, section.Teams[j].SearchName
			if ni != nj {
				return ni < nj
			}
			return section.Teams[i].Slug < section.Teams[j].Slug
		})

		page.Games = append(page.Games, section)
	}
	return page
}

// CalendarURL returns the public URL of a calendar file.
func CalendarURL(base, folder, slug string) string {
	return strings.TrimRight(base, "/") + "/" + folder + "/" + slug + storage.Extension
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	if err := indexTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("rendering index: %w", err)
	}
	return nil
}

// Write renders the page to path, replacing any previous file atomically.
func (p *Page) Write(path string) error {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// Count returns the number of calendars on the page.
func (p *Page) Count() int {
	n := 0
	for _, g := range p.Games {
		n += len(g.Teams)
	}
	return n
}
