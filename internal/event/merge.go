package event

import "sort"

// MergeResult contains the outcome of merging incoming events into an
// existing calendar.
type MergeResult struct {
	Events   []*Event // final set, sorted by start
	Kept     int      // existing events carried over untouched
	Replaced int      // existing events superseded by an incoming one
	Added    int      // incoming events with a UID not seen before
}

// Merge combines the events already on disk with freshly generated ones.
//
// Identity is the UID. An incoming event replaces any existing event with
// the same UID; existing events with no incoming counterpart are kept. When
// incoming contains the same UID twice, the last occurrence wins. The result
// is stably sorted by start, so equal starts keep existing-then-incoming
// order.
func Merge(existing, incoming []*Event) *MergeResult {
	result := &MergeResult{}

	latest := make(map[string]*Event, len(incoming))
	order := make([]string, 0, len(incoming))
	for _, evt := range incoming {
		if _, seen := latest[evt.UID]; !seen {
			order = append(order, evt.UID)
		}
		latest[evt.UID] = evt
	}

	events := make([]*Event, 0, len(existing)+len(order))
	onDisk := make(map[string]bool, len(existing))
	for _, evt := range existing {
		if onDisk[evt.UID] {
			continue
		}
		onDisk[evt.UID] = true

		if _, replaced := latest[evt.UID]; replaced {
			result.Replaced++
			continue
		}
		events = append(events, evt)
		result.Kept++
	}

	for _, uid := range order {
		if !onDisk[uid] {
			result.Added++
		}
		events = append(events, latest[uid])
	}

	SortByStart(events)
	result.Events = events
	return result
}

// SortByStart sorts events by ascending start time. Ties keep their
// relative order.
func SortByStart(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}
