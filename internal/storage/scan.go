package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/snutij/esport-ics/internal/logger"
)

// GameDir is one game folder of the calendar tree.
type GameDir struct {
	Folder    string         `json:"folder"`
	Calendars []CalendarInfo `json:"calendars"`
}

// CalendarInfo summarizes one calendar file.
type CalendarInfo struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Events   int    `json:"events"`
	Upcoming int    `json:"upcoming"`
}

// Scan lists every game folder under the root with the calendars it holds.
// Folders and calendars are returned in lexical order; folders without any
// calendar are omitted. Entries that are not directories at the top level,
// or not regular .ics files inside a folder, are ignored.
//
// Upcoming counts the events that have not started at scan time. A calendar
// that cannot be parsed is still listed, with its name derived from the slug
// and zero events.
func (s *Storage) Scan() ([]GameDir, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning calendar directory: %w", err)
	}

	var games []GameDir
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		calendars, err := s.scanFolder(entry.Name())
		if err != nil {
			return nil, err
		}
		if len(calendars) == 0 {
			continue
		}
		games = append(games, GameDir{Folder: entry.Name(), Calendars: calendars})
	}
	return games, nil
}

func (s *Storage) scanFolder(folder string) ([]CalendarInfo, error) {
	dir := filepath.Join(s.root, folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	now := s.now()
	var calendars []CalendarInfo
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || filepath.Ext(name) != Extension || strings.HasPrefix(name, ".") {
			continue
		}

		slug := strings.TrimSuffix(name, Extension)
		info := CalendarInfo{Slug: slug, Name: TitleizeSlug(slug)}

		g, err := s.ReadCalendar(folder, slug)
		if err != nil {
			s.log.Warn("could not read calendar while scanning", logger.Fields{
				"path":  filepath.Join(dir, name),
				"error": err.Error(),
			})
		} else {
			if strings.TrimSpace(g.Name) != "" {
				info.Name = g.Name
			}
			info.Events = len(g.Events)
			for _, evt := range g.Events {
				if evt.IsUpcoming(now) {
					info.Upcoming++
				}
			}
		}
		calendars = append(calendars, info)
	}

	sort.Slice(calendars, func(i, j int) bool {
		return calendars[i].Slug < calendars[j].Slug
	})
	return calendars, nil
}

// TitleizeSlug turns "team-liquid" into "Team Liquid".
func TitleizeSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
