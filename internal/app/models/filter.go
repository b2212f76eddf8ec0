package models

// SortOption selects the ordering applied after filtering.
type SortOption string

const (
	SortNameAsc     SortOption = "name-asc"
	SortNameDesc    SortOption = "name-desc"
	SortRatingDesc  SortOption = "rating-desc"
	SortRatingAsc   SortOption = "rating-asc"
	SortRecentVisit SortOption = "recent-visit"
)

// FilterState is the transient, per-request filter a catalog read applies.
// It is never persisted; every request reconstructs it from query params.
type FilterState struct {
	Features    []string  `json:"features,omitempty"`    // AND-combined tags
	AgeRange    *[2]int   `json:"ageRange,omitempty"`    // months, overlap test
	Pricing     []Pricing `json:"pricing,omitempty"`     // tier subset
	VisitedOnly bool      `json:"visitedOnly,omitempty"`
	YunsolPick  bool      `json:"yunsolPick,omitempty"`
	RatingRange *[2]int   `json:"ratingRange,omitempty"` // 0..3
	LikedOnly   bool      `json:"likedOnly,omitempty"`
	PinnedOnly  bool      `json:"pinnedOnly,omitempty"`
	HideHidden  bool      `json:"hideHidden,omitempty"`
}
