package vsmoddb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"vsmm/internal/domain"

	"go.uber.org/zap"
)

// DownloadProgress represents the current state of a download
type DownloadProgress struct {
	Dest       string  // Final file path
	TotalBytes int64   // Total size in bytes (0 if unknown)
	Downloaded int64   // Bytes downloaded so far
	Percentage float64 // Completion percentage (0-100)
}

// ProgressFunc is called periodically during download with progress updates
type ProgressFunc func(DownloadProgress)

// ResolveRef turns an archive reference from a release into an absolute URL
func (c *Client) ResolveRef(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: bad archive reference %q: %v", domain.ErrDownloadFailed, ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	u.Path = strings.TrimLeft(u.Path, "/")
	return c.filesURL.ResolveReference(u).String(), nil
}

// FetchArchive downloads ref to dest. It does nothing when dest already exists.
// The body streams into dest.tmp and is renamed into place only when complete.
// A canceled ctx stops the download from starting; once started it runs to the end,
// bounded only by the HTTP client timeout.
func (c *Client) FetchArchive(ctx context.Context, ref, dest string) error {
	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fileURL, err := c.ResolveRef(ref)
	if err != nil {
		return err
	}

	c.log.Infow("Downloading archive", zap.String("url", fileURL), zap.String("dest", dest))
	size, err := c.download(context.WithoutCancel(ctx), fileURL, dest)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDownloadFailed, fileURL, err)
	}
	c.log.Infow("Downloaded archive", zap.String("dest", dest), zap.Int64("bytes", size))
	return nil
}

func (c *Client) download(ctx context.Context, fileURL, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("creating directory: %w", err)
	}

	tempPath := destPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		file.Close()
		os.Remove(tempPath) // no-op once renamed
	}()

	reader := &progressReader{
		reader:     resp.Body,
		dest:       destPath,
		totalBytes: resp.ContentLength,
		progressFn: c.progress,
	}

	written, err := io.Copy(file, reader)
	if err != nil {
		return 0, fmt.Errorf("downloading file: %w", err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return 0, fmt.Errorf("short download: got %d of %d bytes", written, resp.ContentLength)
	}

	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		return 0, fmt.Errorf("renaming file: %w", err)
	}

	return written, nil
}

// progressReader wraps an io.Reader to track download progress
type progressReader struct {
	reader     io.Reader
	dest       string
	totalBytes int64
	downloaded int64
	progressFn ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		if r.progressFn != nil {
			progress := DownloadProgress{
				Dest:       r.dest,
				TotalBytes: r.totalBytes,
				Downloaded: r.downloaded,
			}
			if r.totalBytes > 0 {
				progress.Percentage = float64(r.downloaded) / float64(r.totalBytes) * 100
			}
			r.progressFn(progress)
		}
	}
	return n, err
}
