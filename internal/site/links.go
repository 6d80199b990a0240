package site

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/snutij/esport-ics/internal/storage"
)

const (
	UserAgent    = "esport-ics/1.0 (github.com/snutij/esport-ics)"
	FetchTimeout = 30 * time.Second
)

// Link is one calendar card found in a rendered index.
type Link struct {
	Game string `json:"game"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Links extracts the calendar cards from an index page.
func Links(r io.Reader) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	links := make([]Link, 0)
	doc.Find("section.game-section").Each(func(i int, section *goquery.Selection) {
		game, _ := section.Attr("data-game")
		section.Find("li.team-card").Each(func(j int, card *goquery.Selection) {
			url, ok := card.Attr("data-url")
			if !ok {
				return
			}
			links = append(links, Link{
				Game: game,
				Name: strings.TrimSpace(card.Find(".team-name").Text()),
				URL:  url,
			})
		})
	})
	return links, nil
}

// FetchLinks downloads a published index and extracts its calendar cards.
func FetchLinks(ctx context.Context, client *http.Client, pageURL string) ([]Link, error) {
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return Links(resp.Body)
}

// LinksFromFile extracts the calendar cards from an index file on disk.
func LinksFromFile(path string) ([]Link, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()
	return Links(f)
}

// Problem is a card whose calendar cannot be resolved.
type Problem struct {
	Link   Link   `json:"link"`
	Reason string `json:"reason"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s (%s): %s", p.Link.Name, p.Link.URL, p.Reason)
}

// Verify checks that every link points under publicURL to a calendar file
// present in store.
func Verify(links []Link, store *storage.Storage, publicURL string) []Problem {
	prefix := strings.TrimRight(publicURL, "/") + "/"

	var problems []Problem
	for _, link := range links {
		rel, ok := strings.CutPrefix(link.URL, prefix)
		if !ok {
			problems = append(problems, Problem{Link: link, Reason: "not under " + prefix})
			continue
		}

		folder, file, ok := strings.Cut(rel, "/")
		if !ok || strings.Contains(file, "/") || !strings.HasSuffix(file, storage.Extension) {
			problems = append(problems, Problem{Link: link, Reason: "not a calendar path"})
			continue
		}
		if folder != link.Game {
			problems = append(problems, Problem{Link: link, Reason: "listed under " + link.Game})
			continue
		}

		path := store.CalendarPath(folder, strings.TrimSuffix(file, storage.Extension))
		info, err := os.Stat(path)
		switch {
		case err != nil:
			problems = append(problems, Problem{Link: link, Reason: "missing " + path})
		case !info.Mode().IsRegular():
			problems = append(problems, Problem{Link: link, Reason: "not a regular file: " + path})
		}
	}
	return problems
}
