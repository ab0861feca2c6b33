package extract

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

type countryEntry struct {
	City  string   `yaml:"city"`
	Names []string `yaml:"names"`
}

var countryCities = mustLoadCountries(countriesYAML)

func mustLoadCountries(raw []byte) map[string]string {
	var entries []countryEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		panic("extract: countries.yaml: " + err.Error())
	}
	out := make(map[string]string)
	for _, e := range entries {
		for _, n := range e.Names {
			out[strings.ToLower(n)] = e.City
		}
	}
	return out
}

// NormalizePlace maps a country-level name to its representative city so
// that only city-level names reach the location resolver.
func NormalizePlace(place string) string {
	place = cleanPlace(place)
	key := strings.TrimPrefix(strings.ToLower(place), "the ")
	if city, ok := countryCities[key]; ok {
		return city
	}
	return place
}

func cleanPlace(s string) string {
	return strings.Trim(strings.TrimSpace(s), " .,!?;:'\"")
}
