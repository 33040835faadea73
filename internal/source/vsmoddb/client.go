// Package vsmoddb implements the catalog client over the Vintage Story mod DB REST API.
package vsmoddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vsmm/internal/domain"
	"vsmm/internal/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const (
	DefaultAPIURL   = "https://mods.vintagestory.at/api"
	DefaultFilesURL = "https://mods.vintagestory.at"

	defaultUserAgent       = "Vintage Story Mod Manager"
	defaultDetailCacheSize = 256
	defaultDetailTTL       = 15 * time.Minute
	maxResponseBytes       = 64 << 20
)

// The mod DB sometimes prefixes JSON with debug output in HTML comments
var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// Options configures a Client. Zero values fall back to the public mod DB.
type Options struct {
	APIURL          string
	FilesURL        string
	UserAgent       string
	HTTPClient      *http.Client
	Timeout         time.Duration // used when HTTPClient is nil
	DetailCacheSize int
	DetailTTL       time.Duration
	Logger          *zap.SugaredLogger
	Progress        ProgressFunc
}

// Client talks to the mod DB and caches mod details
type Client struct {
	httpClient *http.Client
	apiURL     string
	filesURL   *url.URL
	userAgent  string
	details    *expirable.LRU[int, *domain.ModDetail]
	log        *zap.SugaredLogger
	progress   ProgressFunc
}

// New creates a mod DB client
func New(opts Options) (*Client, error) {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.FilesURL == "" {
		opts.FilesURL = DefaultFilesURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.DetailCacheSize <= 0 {
		opts.DetailCacheSize = defaultDetailCacheSize
	}
	if opts.DetailTTL <= 0 {
		opts.DetailTTL = defaultDetailTTL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	filesURL, err := url.Parse(opts.FilesURL)
	if err != nil || filesURL.Scheme == "" {
		return nil, fmt.Errorf("%w: invalid files URL %q", domain.ErrInvalidConfig, opts.FilesURL)
	}
	if !strings.HasSuffix(filesURL.Path, "/") {
		filesURL.Path += "/"
	}

	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		filesURL:   filesURL,
		userAgent:  opts.UserAgent,
		details:    expirable.NewLRU[int, *domain.ModDetail](opts.DetailCacheSize, nil, opts.DetailTTL),
		log:        logger.OrNop(opts.Logger),
		progress:   opts.Progress,
	}, nil
}

// Invalidate drops every cached mod detail
func (c *Client) Invalidate() {
	c.details.Purge()
}

// doRequest performs a GET against the API and decodes the cleaned body into result
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) (err error) {
	reqURL := c.apiURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: executing request: %w", domain.ErrCatalogUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrModNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: API error (status %d): %s", domain.ErrCatalogUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", domain.ErrCatalogUnavailable, err)
	}
	if err := json.Unmarshal(cleanBody(body), result); err != nil {
		return fmt.Errorf("%w: decoding response: %v", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

// cleanBody removes HTML comments around or inside the JSON payload
func cleanBody(body []byte) []byte {
	if !strings.Contains(string(body), "<!--") {
		return body
	}
	return htmlComment.ReplaceAll(body, nil)
}

// checkStatus interprets the statuscode field every response carries
func checkStatus(code, what string) error {
	switch code {
	case "", "200":
		return nil
	case "404":
		return fmt.Errorf("%w: %s", domain.ErrModNotFound, what)
	default:
		return fmt.Errorf("%w: %s: status %s", domain.ErrCatalogUnavailable, what, code)
	}
}

func filterQuery(filter *domain.ModFilter) url.Values {
	params := url.Values{}
	if filter == nil {
		return params
	}
	for _, id := range filter.TagIDs {
		params.Add("tagids[]", strconv.Itoa(id))
	}
	if filter.GameVersion != "" {
		params.Set("gameversion", filter.GameVersion)
	}
	for _, v := range filter.GameVersions {
		params.Add("gameversions[]", v)
	}
	if filter.Author > 0 {
		params.Set("author", strconv.Itoa(filter.Author))
	}
	if filter.Text != "" {
		params.Set("text", filter.Text)
	}
	if filter.OrderBy != "" {
		params.Set("orderby", filter.OrderBy)
	}
	if filter.OrderDirection != "" {
		params.Set("orderdirection", filter.OrderDirection)
	}
	return params
}

// ListMods fetches the mod listing, dropping records that fail validation
func (c *Client) ListMods(ctx context.Context, filter *domain.ModFilter) ([]domain.ModMetadata, error) {
	mods, _, err := c.ListModsReport(ctx, filter)
	return mods, err
}

// ListModsReport is ListMods plus the validation report for the listing
func (c *Client) ListModsReport(ctx context.Context, filter *domain.ModFilter) ([]domain.ModMetadata, ValidationReport, error) {
	var resp listResponse
	if err := c.doRequest(ctx, "/mods", filterQuery(filter), &resp); err != nil {
		return nil, ValidationReport{}, fmt.Errorf("listing mods: %w", err)
	}
	if err := checkStatus(resp.StatusCode, "mods"); err != nil {
		// A 404 here means the endpoint, not a mod, is missing
		if errors.Is(err, domain.ErrModNotFound) {
			err = fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
		return nil, ValidationReport{}, fmt.Errorf("listing mods: %w", err)
	}

	mods, report := convertList(resp.Mods)
	if len(report.Quarantined) > 0 {
		c.log.Warnw("Quarantined malformed mod records",
			zap.Int("accepted", report.Accepted),
			zap.Int("quarantined", len(report.Quarantined)))
		for _, q := range report.Quarantined {
			c.log.Debugw("Quarantined record", zap.Int("index", q.Index), zap.Int("modid", q.ModID), zap.String("reason", q.Reason))
		}
	}
	return mods, report, nil
}

// GetModDetail fetches the full record for a mod, serving repeats from the LRU
func (c *Client) GetModDetail(ctx context.Context, modID int) (*domain.ModDetail, error) {
	if cached, ok := c.details.Get(modID); ok {
		return cloneDetail(cached), nil
	}

	var resp detailResponse
	if err := c.doRequest(ctx, "/mod/"+strconv.Itoa(modID), nil, &resp); err != nil {
		return nil, fmt.Errorf("getting mod %d: %w", modID, err)
	}
	if err := checkStatus(resp.StatusCode, "mod "+strconv.Itoa(modID)); err != nil {
		return nil, fmt.Errorf("getting mod %d: %w", modID, err)
	}

	detail, err := convertDetail(resp.Mod)
	if err != nil {
		return nil, fmt.Errorf("getting mod %d: %w", modID, err)
	}
	c.details.Add(modID, cloneDetail(detail))
	return detail, nil
}

func cloneDetail(d *domain.ModDetail) *domain.ModDetail {
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	c.Releases = append([]domain.Release(nil), d.Releases...)
	c.Screenshots = append([]string(nil), d.Screenshots...)
	return &c
}
