package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"catalogsync/internal/docstore"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/models"
	"catalogsync/internal/services/logicom"
)

const (
	DefaultImageTimeout = 20 * time.Second
	DefaultImageRetries = 2
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxImageRedirects = 5
	maxImageBytes     = 32 << 20
)

type ImageConfig struct {
	Timeout   time.Duration
	Referer   string
	UserAgent string
	// Retries is the number of retries after the first failed attempt.
	Retries int
	// HTTPClient overrides the download client; its redirect policy is kept.
	HTTPClient *http.Client
}

// ImagePipeline downloads product images from the supplier's image host and
// uploads them to the asset store.
type ImagePipeline struct {
	store   docstore.Store
	client  *http.Client
	cfg     ImageConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewImagePipeline(store docstore.Store, cfg ImageConfig, logger *logger.Logger, m *metrics.Metrics) *ImagePipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImageTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if client.CheckRedirect == nil {
		c := *client
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxImageRedirects {
				return fmt.Errorf("stopped after %d redirects", maxImageRedirects)
			}
			return nil
		}
		client = &c
	}

	return &ImagePipeline{
		store:   store,
		client:  client,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		sleep:   sleepContext,
	}
}

// Ingest downloads and uploads one image. It returns "" with a nil error when
// the image should be skipped without retrying: a malformed URL, a non-image
// content type or an empty body. Any other failure is an *ImageError.
func (p *ImagePipeline) Ingest(ctx context.Context, rawURL string) (string, error) {
	u, ok := parseImageURL(rawURL)
	if !ok {
		p.logger.Warn("Invalid image URL: %q", rawURL)
		return "", nil
	}
	cleanURL := u.String()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cleanURL, nil)
	if err != nil {
		return "", &ImageError{URL: cleanURL, Err: err}
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "image/*")
	if p.cfg.Referer != "" {
		req.Header.Set("Referer", p.cfg.Referer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ImageError{URL: cleanURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ImageError{URL: cleanURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		p.logger.Warn("Invalid content-type (%s) for URL: %s", contentType, cleanURL)
		return "", nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", &ImageError{URL: cleanURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if len(data) == 0 {
		p.logger.Warn("Empty response data for URL: %s", cleanURL)
		return "", nil
	}

	asset, err := p.store.UploadAsset(ctx, "image", data, docstore.AssetOptions{
		Filename:    imageFilename(u),
		ContentType: contentType,
	})
	if err != nil {
		return "", &ImageError{URL: cleanURL, Err: err}
	}

	p.logger.Debug("Uploaded image: %s", cleanURL)
	return asset.ID, nil
}

// IngestWithRetry makes one attempt plus up to Retries retries, sleeping
// 1s × attempt between them. It returns "" once the image is given up on.
func (p *ImagePipeline) IngestWithRetry(ctx context.Context, rawURL string) string {
	attempts := p.cfg.Retries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		assetID, err := p.Ingest(ctx, rawURL)
		if err == nil {
			return assetID
		}

		var imgErr *ImageError
		if errors.As(err, &imgErr) {
			imgErr.Attempt = attempt
		}
		lastErr = err
		p.logger.Warn("%v", err)

		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
			lastErr = err
			break
		}
	}

	p.metrics.ImageFailed()
	p.logger.Error("Failed after %d retries for %s: %v", p.cfg.Retries, rawURL, lastErr)
	return ""
}

// IngestAll ingests a product's images concurrently and returns the ones that
// succeeded in their original order.
func (p *ImagePipeline) IngestAll(ctx context.Context, urls []string, sku string) []models.Image {
	if len(urls) == 0 {
		return nil
	}

	assetIDs := make([]string, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			assetIDs[i] = p.IngestWithRetry(ctx, u)
		}(i, u)
	}
	wg.Wait()

	images := make([]models.Image, 0, len(urls))
	for i, id := range assetIDs {
		if id == "" {
			continue
		}
		images = append(images, models.NewImage(logicom.ImageKey(i, sku), id))
	}
	return images
}

func parseImageURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, false
	}
	return u, true
}

func imageFilename(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return fmt.Sprintf("image-%d", time.Now().UnixMilli())
	}
	return name
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
