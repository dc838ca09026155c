package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
)

const (
	DefaultNpmURL       = "https://api.npmjs.org"
	DefaultPyPIStatsURL = "https://pypistats.org"
	DefaultDockerHubURL = "https://hub.docker.com"

	defaultTimeout = 5 * time.Second
)

var errNotPublished = errors.New("package not published")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads download counters from the public package registries.
type Client struct {
	http      HTTPClient
	npmURL    string
	pypiURL   string
	dockerURL string
}

type Option func(*Client)

// WithBaseURLs points the client at other registry hosts, used by tests.
func WithBaseURLs(npm, pypiStats, dockerHub string) Option {
	return func(c *Client) {
		c.npmURL = strings.TrimRight(npm, "/")
		c.pypiURL = strings.TrimRight(pypiStats, "/")
		c.dockerURL = strings.TrimRight(dockerHub, "/")
	}
}

func NewClient(httpClient HTTPClient, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	c := &Client{
		http:      httpClient,
		npmURL:    DefaultNpmURL,
		pypiURL:   DefaultPyPIStatsURL,
		dockerURL: DefaultDockerHubURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Adoption looks the repository name up on the registry matching its
// language plus Docker Hub. An unpublished package counts as zero; the
// lookup only fails when no registry could be reached.
func (c *Client) Adoption(ctx context.Context, candidate models.Candidate) (models.PackageAdoption, error) {
	name := strings.ToLower(candidate.Name())
	var adoption models.PackageAdoption
	var attempted, failed int
	var lastErr error

	record := func(err error) {
		attempted++
		if err != nil && !errors.Is(err, errNotPublished) {
			failed++
			lastErr = err
			logger.Debug(ctx, "registry lookup failed", "package", name, "error", err)
		}
	}

	switch strings.ToLower(candidate.Language) {
	case "javascript", "typescript":
		n, err := c.NpmWeeklyDownloads(ctx, name)
		adoption.NpmWeeklyDownloads = n
		record(err)
	case "python":
		n, err := c.PyPIMonthlyDownloads(ctx, name)
		adoption.PyPIMonthlyDownloads = n
		record(err)
	}

	pulls, err := c.DockerPulls(ctx, name)
	adoption.DockerPulls = pulls
	record(err)

	if failed == attempted {
		return models.PackageAdoption{}, domainErrors.ErrTransientMetric.
			WithError(lastErr).
			WithContext("metric", "adoption")
	}
	return adoption, nil
}

func (c *Client) NpmWeeklyDownloads(ctx context.Context, name string) (int, error) {
	var body struct {
		Downloads int `json:"downloads"`
	}
	err := c.getJSON(ctx, fmt.Sprintf("%s/downloads/point/last-week/%s", c.npmURL, url.PathEscape(name)), &body)
	return body.Downloads, err
}

// PyPIMonthlyDownloads uses the pypistats counter for the package name with
// dashes replaced by underscores.
func (c *Client) PyPIMonthlyDownloads(ctx context.Context, name string) (int, error) {
	var body struct {
		Data struct {
			LastMonth int `json:"last_month"`
		} `json:"data"`
	}
	normalized := strings.ReplaceAll(name, "-", "_")
	err := c.getJSON(ctx, fmt.Sprintf("%s/api/packages/%s/recent", c.pypiURL, url.PathEscape(normalized)), &body)
	return body.Data.LastMonth, err
}

// DockerPulls reads the pull count of the official image with that name.
func (c *Client) DockerPulls(ctx context.Context, name string) (int, error) {
	var body struct {
		PullCount int `json:"pull_count"`
	}
	err := c.getJSON(ctx, fmt.Sprintf("%s/v2/repositories/library/%s", c.dockerURL, url.PathEscape(name)), &body)
	return body.PullCount, err
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", req.URL.Host, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return errNotPublished
	default:
		return fmt.Errorf("unexpected status from %s: %s", req.URL.Host, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
