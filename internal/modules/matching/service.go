// README: Matching service selects the nearest driver for a pickup point.
package matching

import (
	"math"

	"ridesim/internal/modules/driver"
	"ridesim/internal/modules/location"
	"ridesim/internal/types"
)

// Candidates is the read side of the driver registry.
type Candidates interface {
	List() []driver.Driver
}

type Service struct {
	drivers Candidates
}

func NewService(drivers Candidates) *Service {
	return &Service{drivers: drivers}
}

// Nearest runs FindNearest over a snapshot of the registry.
func (s *Service) Nearest(pickup types.Point) (Match, error) {
	d, dist, ok := nearest(pickup, s.drivers.List())
	if !ok {
		return Match{}, ErrNoDriver
	}
	return Match{Driver: d, DistanceMeters: dist}, nil
}

// FindNearest returns the candidate closest to pickup. Ties go to the candidate
// that appears first. ok is false when candidates is empty.
func FindNearest(pickup types.Point, candidates []driver.Driver) (driver.Driver, bool) {
	d, _, ok := nearest(pickup, candidates)
	return d, ok
}

func nearest(pickup types.Point, candidates []driver.Driver) (driver.Driver, float64, bool) {
	var (
		best    driver.Driver
		found   bool
		minDist = math.Inf(1)
	)
	for _, c := range candidates {
		dist := location.DistanceMeters(pickup, c.Location)
		if dist < minDist {
			minDist = dist
			best = c
			found = true
		}
	}
	return best, minDist, found
}
