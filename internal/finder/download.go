package finder

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/alpnfinder/internal/utils"
)

// Download fetches the alpn-boot jar for version into the destination file.
// An existing file is replaced. If the transfer fails after the file was
// created, an empty or truncated file is left behind.
func (f *Finder) Download(ctx context.Context, version string) error {
	target := f.cfg.DestinationFile()
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return &utils.InvalidDestinationError{Path: target}
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &utils.FilesystemError{Op: "remove", Path: target, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &utils.FilesystemError{Op: "create directories for", Path: target, Err: err}
	}
	outFile, err := os.Create(target)
	if err != nil {
		return &utils.FilesystemError{Op: "create", Path: target, Err: err}
	}
	defer outFile.Close()

	url := ArtifactURL(f.cfg.MavenRepository(), version)
	log.Info().Str("op", "finder/download").Msgf("Downloading %s", url)
	body, err := f.fetch(ctx, url, true)
	if err != nil {
		return err
	}
	if _, err := outFile.Write(body); err != nil {
		return &utils.FilesystemError{Op: "write", Path: target, Err: err}
	}
	if err := outFile.Close(); err != nil {
		return &utils.FilesystemError{Op: "write", Path: target, Err: err}
	}
	log.Info().Str("op", "finder/download").Msgf("Wrote %s to %s", utils.FormatBytes(uint64(len(body))), target)
	return nil
}
