// Package snapshot holds the bundled catalog data the gateway falls back to
// when the database is unavailable. The snapshot ships inside the binary so a
// cold deployment still renders a usable catalog.
package snapshot

import (
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

//go:embed places.json
var rawSnapshot []byte

type document struct {
	Places []models.Place `json:"places"`
	Tips   []models.Tip   `json:"tips"`
}

var (
	once sync.Once
	doc  document
	err  error
)

func load() {
	once.Do(func() {
		if uerr := json.Unmarshal(rawSnapshot, &doc); uerr != nil {
			err = errors.Wrap(uerr, "parsing embedded catalog snapshot")
		}
	})
}

// Places returns the bundled place list. The slice is shared; callers must
// not mutate it.
func Places() ([]models.Place, error) {
	load()
	return doc.Places, err
}

// Tips returns the bundled tip list.
func Tips() ([]models.Tip, error) {
	load()
	return doc.Tips, err
}
