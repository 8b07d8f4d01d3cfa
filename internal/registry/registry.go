// Package registry holds the fixed set of Tamil Nadu districts the
// weather pipeline reports on.
package registry

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kavinm/tn-district-weather/internal/weather"
)

var names = []string{
	"Ariyalur",
	"Chengalpattu",
	"Chennai",
	"Coimbatore",
	"Cuddalore",
	"Dharmapuri",
	"Dindigul",
	"Erode",
	"Kallakurichi",
	"Kancheepuram",
	"Kanniyakumari",
	"Karur",
	"Krishnagiri",
	"Madurai",
	"Mayiladuthurai",
	"Nagapattinam",
	"Namakkal",
	"Nilgiris",
	"Perambalur",
	"Pudukkottai",
	"Ramanathapuram",
	"Ranipet",
	"Salem",
	"Sivaganga",
	"Tenkasi",
	"Thanjavur",
	"Theni",
	"Thoothukudi",
	"Tiruchirappalli",
	"Tirunelveli",
	"Tirupathur",
	"Tiruppur",
	"Tiruvallur",
	"Tiruvannamalai",
	"Tiruvarur",
	"Vellore",
	"Viluppuram",
	"Virudhunagar",
}

// queryOverrides maps districts whose provider lookup resolves through a
// town with a different name than the district itself.
var queryOverrides = map[string]string{
	"Kanniyakumari": "Nagercoil",
	"Nilgiris":      "Udhagamandalam",
	"Tirupathur":    "Tirupattur",
	"Viluppuram":    "Villupuram",
}

// Districts returns the registry as provider-ready locations, in
// alphabetical order. The slice is built fresh on every call, so callers
// may modify it freely.
func Districts() []weather.Location {
	out := make([]weather.Location, 0, len(names))
	for _, name := range names {
		query := name
		if override, ok := queryOverrides[name]; ok {
			query = override
		}
		out = append(out, weather.Location{District: name, Query: query})
	}
	return out
}

var validate = validator.New()

// Validate checks that every registry entry is complete and that no
// district appears twice.
func Validate() error {
	seen := make(map[string]struct{}, len(names))
	for _, loc := range Districts() {
		if err := validate.Struct(loc); err != nil {
			return fmt.Errorf("district %q: %w", loc.District, err)
		}
		if _, dup := seen[loc.District]; dup {
			return fmt.Errorf("duplicate district %q", loc.District)
		}
		seen[loc.District] = struct{}{}
	}
	return nil
}
