package finder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/alpnfinder/internal/utils"
)

func httpGet(ctx context.Context, client utils.HTTPDoer, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &utils.NetworkError{URL: url, Err: fmt.Errorf("error creating GET request: %w", err)}
	}
	log.Debug().Str("op", "finder/http").Msgf("GET %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &utils.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &utils.HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &utils.NetworkError{URL: url, Err: fmt.Errorf("error reading response body: %w", err)}
	}
	return body, nil
}

// ArtifactURL is the alpn-boot jar location for version under repository.
func ArtifactURL(repository, version string) string {
	return strings.TrimRight(repository, "/") + fmt.Sprintf(utils.ArtifactPathFormat, version, version)
}
