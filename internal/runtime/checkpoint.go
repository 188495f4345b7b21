package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// HTTPCheckpointFetcher downloads model weights into the persistent cache
// volume. Writes go through a temp file and a rename so a failed download
// never leaves a partial checkpoint at the cache path.
type HTTPCheckpointFetcher struct {
	httpClient *http.Client
}

func NewHTTPCheckpointFetcher() *HTTPCheckpointFetcher {
	// No client timeout: checkpoints are multi-gigabyte and the download is
	// bounded by the request context instead.
	return &HTTPCheckpointFetcher{httpClient: &http.Client{}}
}

func (f *HTTPCheckpointFetcher) Fetch(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download checkpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download checkpoint: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("move checkpoint into cache: %w", err)
	}

	log.WithFields(log.Fields{
		"url":   url,
		"dest":  dest,
		"bytes": written,
	}).Info("checkpoint downloaded")

	return nil
}
