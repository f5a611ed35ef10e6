package catalog

import "fmt"

// Entry is one satellite in the merged catalog.
type Entry struct {
	CatalogNumber int    `json:"satid"`
	Name          string `json:"satname"`
	Category      string `json:"category"`
}

// Source is one upstream group listing and the category its entries get.
type Source struct {
	Category string `yaml:"category" json:"category"`
	URL      string `yaml:"url" json:"url"`
}

// SearchResult holds at most MaxSearchResults matches and the untruncated count.
type SearchResult struct {
	Entries []Entry
	Total   int
}

// MaxSearchResults caps the entries returned by Search.
const MaxSearchResults = 100

const groupURLFormat = "https://celestrak.org/NORAD/elements/gp.php?GROUP=%s&FORMAT=tle"

// DefaultSources lists the CelesTrak groups merged into the catalog, in
// priority order: a satellite listed by several groups keeps the category of
// the first one here.
func DefaultSources() []Source {
	groups := []struct{ group, category string }{
		{"stations", "Space Stations"},
		{"visual", "Brightest"},
		{"active", "Active"},
		{"weather", "Weather"},
		{"noaa", "NOAA"},
		{"goes", "GOES"},
		{"resource", "Earth Resources"},
		{"geo", "Geostationary"},
		{"gps-ops", "GPS"},
		{"glo-ops", "GLONASS"},
		{"galileo", "Galileo"},
		{"beidou", "Beidou"},
		{"science", "Science"},
		{"engineering", "Engineering"},
		{"education", "Education"},
		{"military", "Military"},
		{"cubesat", "CubeSats"},
		{"other-comm", "Communications"},
		{"iridium-NEXT", "Iridium NEXT"},
		{"starlink", "Starlink"},
		{"oneweb", "OneWeb"},
		{"planet", "Planet"},
	}

	sources := make([]Source, len(groups))
	for i, g := range groups {
		sources[i] = Source{Category: g.category, URL: fmt.Sprintf(groupURLFormat, g.group)}
	}
	return sources
}
