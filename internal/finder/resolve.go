package finder

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/alpnfinder/internal/mapping"
	"github.com/tanq16/alpnfinder/internal/utils"
)

// Resolve fetches the mapping resource and returns the ALPN version mapped
// to the configured java version. A key mapped to an empty value counts as
// missing.
func (f *Finder) Resolve(ctx context.Context) (string, error) {
	mappingURL := f.cfg.MappingURL()
	log.Info().Str("op", "finder/resolve").Msgf("Fetching version mapping from %s", mappingURL)
	body, err := f.fetch(ctx, mappingURL, false)
	if err != nil {
		return "", err
	}
	table := mapping.Parse(body)
	log.Debug().Str("op", "finder/resolve").Msgf("Mapping has %d entries", table.Len())
	javaVersion := f.cfg.JavaVersion()
	version, ok := table.Lookup(javaVersion)
	if !ok || version == "" {
		log.Debug().Str("op", "finder/resolve").Strs("known", table.Keys()).Msgf("No ALPN version for java %s", javaVersion)
		return "", &utils.LookupError{Key: javaVersion, URL: mappingURL}
	}
	log.Info().Str("op", "finder/resolve").Msgf("Found ALPN version %s for java %s", version, javaVersion)
	return version, nil
}
