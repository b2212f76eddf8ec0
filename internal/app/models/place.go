package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pricing is the closed set of price tiers a place can carry.
type Pricing string

const (
	PricingFree   Pricing = "Free"
	PricingLow    Pricing = "$"
	PricingMedium Pricing = "$$"
	PricingHigh   Pricing = "$$$"
)

func (p Pricing) Valid() bool {
	switch p {
	case PricingFree, PricingLow, PricingMedium, PricingHigh:
		return true
	}
	return false
}

// Catalog age bounds, in months.
const (
	MinAgeMonths = 0
	MaxAgeMonths = 144 // 12 years
)

// Photo is a single photo record attached to a place.
type Photo struct {
	URL        string    `json:"url"`
	Caption    string    `json:"caption,omitempty"`
	SourceType string    `json:"sourceType,omitempty"`
	IsCover    bool      `json:"isCover"`
	AddedAt    time.Time `json:"addedAt,omitzero"`
}

// Experience holds the family's own notes about a place. Rating is only
// meaningful when HasVisited is true and is nil when the place is unrated.
type Experience struct {
	HasVisited    bool       `json:"hasVisited"`
	Rating        *int       `json:"rating"`
	Likes         string     `json:"likes,omitempty"`
	Dislikes      string     `json:"dislikes,omitempty"`
	PersonalNotes string     `json:"personalNotes,omitempty"`
	LastVisited   *time.Time `json:"lastVisited,omitempty"`
}

// Place is a cataloged toddler-friendly location.
type Place struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Icon            string     `json:"icon,omitempty"`
	Description     string     `json:"description,omitempty"`
	Address         string     `json:"address,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Website         string     `json:"website,omitempty"`
	Pricing         Pricing    `json:"pricing,omitempty"`
	AgeRange        *[2]int    `json:"ageRange,omitempty"` // [min,max] in months
	Features        []string   `json:"features,omitempty"`
	ParkingInfo     string     `json:"parkingInfo,omitempty"`
	DurationOfVisit string     `json:"durationOfVisit,omitempty"`
	SpecialNotes    string     `json:"specialNotes,omitempty"`
	Photos          []Photo    `json:"photos,omitempty"`
	Experience      Experience `json:"yunsolExperience"`
	CreatedAt       time.Time  `json:"createdAt,omitzero"`
	UpdatedAt       time.Time  `json:"updatedAt,omitzero"`
}

// UnmarshalJSON accepts ids as either a JSON string or a number: snapshot
// records carry sequential integers while database rows carry uuids.
func (p *Place) UnmarshalJSON(data []byte) error {
	type Alias Place
	aux := &struct {
		ID json.RawMessage `json:"id"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.ID) > 0 {
		var s string
		if err := json.Unmarshal(aux.ID, &s); err == nil {
			p.ID = s
		} else {
			p.ID = strings.TrimSpace(string(aux.ID))
		}
	}
	return nil
}

// Validate checks the invariants a place record must hold before it is
// written: name present, pricing from the closed set, ageRange ordered and
// inside the catalog bounds, rating in {1,2,3} when present.
func (p *Place) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("place name is required: %w", ErrValidation)
	}
	if p.Pricing != "" && !p.Pricing.Valid() {
		return fmt.Errorf("pricing %q is not one of Free, $, $$, $$$: %w", p.Pricing, ErrValidation)
	}
	if p.AgeRange != nil {
		if p.AgeRange[0] > p.AgeRange[1] {
			return fmt.Errorf("ageRange min %d exceeds max %d: %w", p.AgeRange[0], p.AgeRange[1], ErrValidation)
		}
		if p.AgeRange[0] < MinAgeMonths || p.AgeRange[1] > MaxAgeMonths {
			return fmt.Errorf("ageRange [%d,%d] outside catalog bounds: %w", p.AgeRange[0], p.AgeRange[1], ErrValidation)
		}
	}
	if r := p.Experience.Rating; r != nil && (*r < 1 || *r > 3) {
		return fmt.Errorf("rating %d not in 1..3: %w", *r, ErrValidation)
	}
	return nil
}

// SamePlaceID reports whether two place ids refer to the same place,
// comparing numerically when both sides parse as integers so that a snapshot
// id 7 matches the query string "7".
func SamePlaceID(a, b string) bool {
	if a == b {
		return true
	}
	ai, aerr := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	bi, berr := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	return aerr == nil && berr == nil && ai == bi
}

// ImportError records why one record of a bulk import was rejected.
type ImportError struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

// ImportReport summarizes a bulk import. Records are validated one by one,
// so a single bad record never sinks the batch.
type ImportReport struct {
	Total    int           `json:"total"`
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// Tip is a short advice card shown alongside the catalog.
type Tip struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}
