package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/pandascore"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByPosition SortOrder = "position"
	SortByName     SortOrder = "name"
	SortByFolder   SortOrder = "folder"
	SortByID       SortOrder = "id"
)

// sortGames sorts games in place. Position keeps registry order.
func sortGames(games []config.Game, order SortOrder) error {
	switch order {
	case SortByPosition, "":
	case SortByName:
		sort.SliceStable(games, func(i, j int) bool {
			ni, nj := strings.ToLower(games[i].Name), strings.ToLower(games[j].Name)
			if ni != nj {
				return ni < nj
			}
			return games[i].Folder < games[j].Folder
		})
	case SortByFolder:
		sort.SliceStable(games, func(i, j int) bool {
			return games[i].Folder < games[j].Folder
		})
	default:
		return fmt.Errorf("invalid sort: %s (must be 'position', 'name' or 'folder')", order)
	}
	return nil
}

// sortLeagues sorts leagues in place by name or numeric id.
func sortLeagues(leagues []pandascore.RawLeague, order SortOrder) error {
	switch order {
	case SortByName, "":
		sort.SliceStable(leagues, func(i, j int) bool {
			ni, nj := strings.ToLower(leagues[i].Name), strings.ToLower(leagues[j].Name)
			if ni != nj {
				return ni < nj
			}
			return compareIDs(leagues[i].ID.String(), leagues[j].ID.String())
		})
	case SortByID:
		sort.SliceStable(leagues, func(i, j int) bool {
			return compareIDs(leagues[i].ID.String(), leagues[j].ID.String())
		})
	default:
		return fmt.Errorf("invalid sort: %s (must be 'name' or 'id')", order)
	}
	return nil
}

// compareIDs orders decimal ids numerically without parsing them.
// Returns true if id i should come before id j
func compareIDs(i, j string) bool {
	if len(i) != len(j) {
		return len(i) < len(j)
	}
	return i < j
}
