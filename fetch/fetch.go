// Package fetch retrieves the bulk match archive: it downloads a zip
// from the configured URL and extracts its JSON members into the data
// directory. Retrieval failure is fatal to the run; callers do not
// retry here.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Download fetches the archive at url and extracts it into destDir,
// creating the directory if needed. The downloaded zip is staged in a
// temporary file and removed afterward.
func Download(ctx context.Context, url, destDir string, logger *zap.Logger) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", destDir, err)
	}

	logger.Info("downloading archive", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(destDir, "archive-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write archive to %s: %w", tmpPath, err)
	}
	logger.Info("archive downloaded", zap.Int64("bytes", written))

	if err := extractZip(tmpPath, destDir, logger); err != nil {
		return err
	}
	return nil
}

// extractZip extracts every file member of the archive into destDir.
// Member paths are flattened to their base name and checked against
// directory traversal.
func extractZip(zipPath, destDir string, logger *zap.Logger) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	var extracted int
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(member.Name)
		if name == "." || name == ".." || strings.Contains(name, string(os.PathSeparator)) {
			return fmt.Errorf("archive member has unsafe name: %q", member.Name)
		}
		if err := extractMember(member, filepath.Join(destDir, name)); err != nil {
			return err
		}
		extracted++
	}

	logger.Info("archive extracted", zap.Int("files", extracted), zap.String("dir", destDir))
	return nil
}

func extractMember(member *zip.File, dest string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	_, err = io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", member.Name, err)
	}
	return nil
}
