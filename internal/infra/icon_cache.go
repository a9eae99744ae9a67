package infra

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// IconCache downloads and caches item images for notifications. Everything
// here is best-effort: a miss or a failed download yields an empty path and
// the notification goes out without an icon.
type IconCache struct {
	baseURL  string
	basePath string
	client   *http.Client
}

// NewIconCache creates an icon cache rooted at cacheDir. baseURL is the item
// image endpoint; the hash name is appended as a query parameter.
func NewIconCache(baseURL, cacheDir string) (*IconCache, error) {
	if cacheDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		cacheDir = filepath.Join(configDir, "csmrashireniye", "assets", "icons")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icon cache directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconCache{
		baseURL:  baseURL,
		basePath: cacheDir,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Resolve returns the local icon path for an item, downloading and resizing it
// on a cache miss. Returns "" when the icon cannot be obtained.
func (c *IconCache) Resolve(ctx context.Context, hashName string) string {
	if hashName == "" || c.baseURL == "" {
		return ""
	}

	// Hash names contain path-hostile characters, so the cache key is a digest
	sum := sha1.Sum([]byte(hashName))
	filePath := filepath.Join(c.basePath, hex.EncodeToString(sum[:])+".png")

	if _, err := os.Stat(filePath); err == nil {
		return filePath
	}

	if err := c.download(ctx, hashName, filePath); err != nil {
		slog.Debug("icon download failed",
			slog.String("item", hashName),
			slog.Any("error", err))
		return ""
	}
	return filePath
}

func (c *IconCache) download(ctx context.Context, hashName, filePath string) error {
	reqURL := c.baseURL + "?name=" + url.QueryEscape(hashName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	// 48x48 matches the notification tray size, Lanczos keeps the detail
	resizedImg := imaging.Resize(srcImg, 48, 48, imaging.Lanczos)

	if err := imaging.Save(resizedImg, filePath); err != nil {
		return fmt.Errorf("failed to save resized image: %w", err)
	}
	return nil
}
