// README: Pure seeding functions for the fixed driver pool.
package driver

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"ridesim/internal/types"
)

var (
	alphabet = []string{
		"a", "ă", "â", "b", "c", "d", "đ", "e", "ê", "g", "h", "i",
		"k", "l", "m", "n", "o", "ô", "ơ", "p", "q", "r", "s", "t",
	}
	honorifics = []string{"Anh", "Chị", "Ông", "Bà"}
)

// Seed produces exactly count drivers with ids driver1..driverN. Generators are
// called once per driver, in id order.
func Seed(count int, names func() string, locations func() types.Point) []Driver {
	if count <= 0 {
		return []Driver{}
	}
	drivers := make([]Driver, count)
	for i := range drivers {
		drivers[i] = Driver{
			ID:       types.ID(fmt.Sprintf("driver%d", i+1)),
			Name:     names(),
			Location: locations(),
		}
	}
	return drivers
}

// NameGenerator walks the alphabet in order and pairs each upper-cased letter
// with a random honorific, e.g. "Ă Chị".
func NameGenerator(rng *rand.Rand) func() string {
	next := 0
	return func() string {
		letter := alphabet[next%len(alphabet)]
		next++
		return strings.ToUpper(letter) + " " + honorifics[rng.IntN(len(honorifics))]
	}
}

// LocationGenerator draws points uniformly from center +- offset in both axes.
func LocationGenerator(rng *rand.Rand, center types.Point, offset float64) func() types.Point {
	return func() types.Point {
		return types.Point{
			Lat: center.Lat + (rng.Float64()-0.5)*2*offset,
			Lng: center.Lng + (rng.Float64()-0.5)*2*offset,
		}
	}
}

// DefaultPool seeds count drivers around DefaultCenter using rng.
func DefaultPool(rng *rand.Rand, count int) []Driver {
	return Seed(count, NameGenerator(rng), LocationGenerator(rng, DefaultCenter, seedOffsetDeg))
}
