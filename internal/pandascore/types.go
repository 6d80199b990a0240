package pandascore

import (
	"bytes"
	"strconv"
	"strings"
)

// RawMatch is one record of the upcoming matches listing. Fields the
// upstream may omit or send as null decode to their zero value.
type RawMatch struct {
	ID            ID             `json:"id"`
	Name          string         `json:"name"`
	ScheduledAt   string         `json:"scheduled_at"`
	NumberOfGames Count          `json:"number_of_games"`
	Opponents     []RawOpponent  `json:"opponents"`
	League        *RawLeague     `json:"league"`
	Serie         *RawSerie      `json:"serie"`
	Tournament    *RawTournament `json:"tournament"`
	StreamsList   []RawStream    `json:"streams_list"`
	Status        string         `json:"status,omitempty"`
	Videogame     *RawVideogame  `json:"videogame,omitempty"`
}

// RawOpponent wraps a participant. Type is "Team" or "Player".
type RawOpponent struct {
	Type     string   `json:"type"`
	Opponent *RawTeam `json:"opponent"`
}

type RawTeam struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Acronym string `json:"acronym"`
	Slug    string `json:"slug"`
}

// RawLeague appears both inline on matches and in the leagues listing.
type RawLeague struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url,omitempty"`
}

type RawSerie struct {
	ID       ID     `json:"id"`
	FullName string `json:"full_name"`
}

type RawTournament struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type RawStream struct {
	Main     bool   `json:"main"`
	Official bool   `json:"official"`
	RawURL   string `json:"raw_url"`
	Language string `json:"language"`
}

type RawVideogame struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ID is an upstream identifier. The API sends integers, but strings are
// accepted too so that ids survive any re-encoding unchanged.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*id = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
	default:
		*id = ID(data)
	}
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Count is a best-of game count. Values that are missing, null or not a
// number decode to 0.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if n, err := strconv.Atoi(s); err == nil {
		*c = Count(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*c = Count(int(f))
		return nil
	}
	*c = 0
	return nil
}
