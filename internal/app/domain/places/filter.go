package places

import (
	"slices"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

// agesOverlap reports whether two [min,max] month ranges intersect.
func agesOverlap(filter, place [2]int) bool {
	return filter[0] <= place[1] && place[0] <= filter[1]
}

func hasAllFeatures(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// FilterAndSort derives the visible, ordered subset of the catalog from the
// full place list, the user's preference sets, the transient filter state and
// a sort key. It is pure: inputs are never mutated and identical inputs
// always produce the same output.
func FilterAndSort(all []models.Place, prefs *models.PreferenceSet, filters models.FilterState, sortBy models.SortOption) []models.Place {
	var liked, hidden, pinned map[string]struct{}
	if prefs != nil {
		liked = toSet(prefs.Liked)
		hidden = toSet(prefs.Hidden)
		pinned = toSet(prefs.Pinned)
	}

	result := make([]models.Place, 0, len(all))
	for _, pl := range all {
		if passes(&pl, filters, liked, hidden, pinned) {
			result = append(result, pl)
		}
	}

	sortPlaces(result, sortBy)
	return result
}

func passes(pl *models.Place, f models.FilterState, liked, hidden, pinned map[string]struct{}) bool {
	// Feature tags combine with AND: the place must carry every selected tag.
	if len(f.Features) > 0 && !hasAllFeatures(pl.Features, f.Features) {
		return false
	}
	// Places without an age range pass; otherwise the ranges must overlap.
	if f.AgeRange != nil && pl.AgeRange != nil && !agesOverlap(*f.AgeRange, *pl.AgeRange) {
		return false
	}
	if len(f.Pricing) > 0 && !slices.Contains(f.Pricing, pl.Pricing) {
		return false
	}
	if f.VisitedOnly && !pl.Experience.HasVisited {
		return false
	}
	if f.YunsolPick && !pl.Experience.HasVisited {
		return false
	}
	if f.RatingRange != nil {
		if r := pl.Experience.Rating; r != nil {
			if *r < f.RatingRange[0] || *r > f.RatingRange[1] {
				return false
			}
		} else if f.RatingRange[0] > 0 {
			// Unrated places fail once the lower bound is raised above zero.
			return false
		}
	}
	if f.LikedOnly {
		if _, ok := liked[pl.ID]; !ok {
			return false
		}
	}
	if f.PinnedOnly {
		if _, ok := pinned[pl.ID]; !ok {
			return false
		}
	}
	if f.HideHidden {
		if _, ok := hidden[pl.ID]; ok {
			return false
		}
	}
	return true
}

func ratingOf(pl *models.Place) int {
	if pl.Experience.Rating == nil {
		return 0
	}
	return *pl.Experience.Rating
}

func lastVisitOf(pl *models.Place) time.Time {
	if pl.Experience.LastVisited == nil {
		return time.Time{}
	}
	return *pl.Experience.LastVisited
}

func sortPlaces(result []models.Place, sortBy models.SortOption) {
	switch sortBy {
	case models.SortNameAsc, models.SortNameDesc:
		col := collate.New(language.English, collate.IgnoreCase)
		asc := sortBy == models.SortNameAsc
		sort.SliceStable(result, func(i, j int) bool {
			if asc {
				return col.CompareString(result[i].Name, result[j].Name) < 0
			}
			return col.CompareString(result[j].Name, result[i].Name) < 0
		})
	case models.SortRatingDesc:
		sort.SliceStable(result, func(i, j int) bool {
			return ratingOf(&result[i]) > ratingOf(&result[j])
		})
	case models.SortRatingAsc:
		sort.SliceStable(result, func(i, j int) bool {
			return ratingOf(&result[i]) < ratingOf(&result[j])
		})
	case models.SortRecentVisit:
		sort.SliceStable(result, func(i, j int) bool {
			return lastVisitOf(&result[i]).After(lastVisitOf(&result[j]))
		})
	}
}
