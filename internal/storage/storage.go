package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/snutij/esport-ics/internal/calendar"
	"github.com/snutij/esport-ics/internal/event"
	"github.com/snutij/esport-ics/internal/logger"
)

// Extension of calendar files.
const Extension = ".ics"

// Storage manages the on-disk calendar tree <root>/<folder>/<slug>.ics.
type Storage struct {
	root string
	log  *logger.Logger
	now  func() time.Time

	rename func(oldpath, newpath string) error
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger used for stale-file warnings.
func WithLogger(l *logger.Logger) Option {
	return func(s *Storage) {
		s.log = l
	}
}

// WithClock sets the time source used to count upcoming events.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// New creates a new Storage rooted at root, creating the directory if needed.
func New(root string, opts ...Option) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		root = filepath.Join(home, root[2:])
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating calendar directory: %w", err)
	}

	s := &Storage{
		root:   root,
		log:    logger.Default(),
		now:    time.Now,
		rename: os.Rename,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the calendar root directory.
func (s *Storage) Root() string {
	return s.root
}

// CalendarPath returns the file path for a group slug within a game folder.
func (s *Storage) CalendarPath(folder, slug string) string {
	return filepath.Join(s.root, folder, slug+Extension)
}

// WriteResult describes one merged calendar write.
type WriteResult struct {
	Path     string `json:"path"`
	Slug     string `json:"slug"`
	Existing int    `json:"existing"` // valid events found on disk
	Incoming int    `json:"incoming"` // events generated this run
	Kept     int    `json:"kept"`
	Replaced int    `json:"replaced"`
	Added    int    `json:"added"`
	Total    int    `json:"total"`
	Stale    bool   `json:"stale"`
}

// WriteCalendar merges g into <root>/<folder>/<g.Slug>.ics.
//
// Events already on disk are kept unless g has an event with the same UID,
// in which case g's version wins. The result is sorted by start time.
// Calendar metadata always comes from g. An existing file that cannot be
// read or parsed is logged and treated as empty; the returned result then
// has Stale set.
//
// The file is replaced atomically. On error the previous file is left
// untouched.
func (s *Storage) WriteCalendar(folder string, g *calendar.Group) (WriteResult, error) {
	if err := validName(folder); err != nil {
		return WriteResult{}, fmt.Errorf("invalid folder: %w", err)
	}
	if err := validName(g.Slug); err != nil {
		return WriteResult{}, fmt.Errorf("invalid calendar slug: %w", err)
	}

	path := s.CalendarPath(folder, g.Slug)
	result := WriteResult{Path: path, Slug: g.Slug, Incoming: len(g.Events)}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return result, fmt.Errorf("writing calendar %s: %w", path, err)
	}

	existing, stale := s.readExisting(path)
	result.Existing = len(existing)
	result.Stale = stale

	merged := event.Merge(existing, g.Events)
	result.Kept = merged.Kept
	result.Replaced = merged.Replaced
	result.Added = merged.Added
	result.Total = len(merged.Events)

	out := calendar.NewGroup(g.Slug, g.Name, g.Description)
	out.Events = merged.Events

	if err := s.writeAtomic(dir, path, out); err != nil {
		return result, fmt.Errorf("writing calendar %s: %w", path, err)
	}

	s.log.Debug("calendar written", logger.Fields{
		"path":     path,
		"existing": result.Existing,
		"incoming": result.Incoming,
		"total":    result.Total,
	})
	return result, nil
}

// ReadCalendar loads the calendar for slug in folder. Invalid events are
// dropped. A missing file returns an error matching fs.ErrNotExist.
func (s *Storage) ReadCalendar(folder, slug string) (*calendar.Group, error) {
	path := s.CalendarPath(folder, slug)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	defer f.Close()

	g, _, err := calendar.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading calendar %s: %w", path, err)
	}
	if g.Slug == "" {
		g.Slug = slug
	}
	return g, nil
}

// readExisting returns the valid events of the file at path. stale reports
// that the file exists but could not be used.
func (s *Storage) readExisting(path string) (events []*event.Event, stale bool) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false
		}
		s.log.Warn("could not read existing calendar, treating as empty", logger.Fields{
			"path":  path,
			"error": err.Error(),
		})
		return nil, true
	}
	defer f.Close()

	g, skipped, err := calendar.Decode(f)
	if err != nil {
		s.log.Warn("could not parse existing calendar, treating as empty", logger.Fields{
			"path":  path,
			"error": err.Error(),
		})
		return nil, true
	}

	for _, skipErr := range skipped {
		s.log.Warn("skipping invalid event in existing calendar", logger.Fields{
			"path":  path,
			"error": skipErr.Error(),
		})
	}
	return g.Events, false
}

// writeAtomic encodes g to a temp file in dir and renames it over path.
func (s *Storage) writeAtomic(dir, path string, g *calendar.Group) (err error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = calendar.Encode(tmp, g); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return s.rename(tmpName, path)
}

func validName(name string) error {
	switch {
	case name == "":
		return errors.New("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("reserved name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}
