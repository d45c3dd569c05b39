package adapter

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCityCode is used when a location misses the table in every case
// variant (Karachi's code on the target site).
const DefaultCityCode = "1184"

// CityTable maps city display names to site-internal numeric codes. Loaded
// once at adapter construction, read-only afterwards.
type CityTable struct {
	codes map[string]string
}

// LoadCityTable reads the city→code mapping from a JSON side file. A missing
// or unparseable file degrades to an empty table (all lookups fall back to
// DefaultCityCode) rather than failing startup.
func LoadCityTable(path string, logger *slog.Logger) *CityTable {
	t := &CityTable{codes: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("city table unavailable, using default code for all lookups",
			"path", path, "error", err)
		return t
	}
	if err := json.Unmarshal(data, &t.codes); err != nil {
		logger.Warn("city table unparseable, using default code for all lookups",
			"path", path, "error", err)
		t.codes = map[string]string{}
		return t
	}

	logger.Info("city table loaded", "path", path, "cities", len(t.codes))
	return t
}

// Resolve looks up the code for location, trying the name as given, then
// lowercase, then Title Case, before falling back to DefaultCityCode.
func (t *CityTable) Resolve(location string, logger *slog.Logger) string {
	variants := []string{
		location,
		strings.ToLower(location),
		cases.Title(language.English).String(strings.ToLower(location)),
	}
	for _, v := range variants {
		if code, ok := t.codes[v]; ok {
			logger.Info("resolved city code", "location", location, "code", code)
			return code
		}
	}
	logger.Warn("city code not found, using default",
		"location", location, "default", DefaultCityCode)
	return DefaultCityCode
}

// Len returns the number of loaded cities.
func (t *CityTable) Len() int { return len(t.codes) }
