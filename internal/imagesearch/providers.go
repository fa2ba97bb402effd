package imagesearch

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/antonholmquist/jason"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/httpclient"
)

const (
	DefaultUnsplashURL = "https://api.unsplash.com"
	DefaultPexelsURL   = "https://api.pexels.com"

	maxResponseBody = 1 << 20
)

// Provider searches one image service. A nil result without error means
// the service had no match.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (*Result, error)
}

type unsplashProvider struct {
	baseURL string
	key     string
	http    *httpclient.Client
}

// NewUnsplash searches Unsplash's /search/photos with a client_id key
func NewUnsplash(baseURL, accessKey string, hc *httpclient.Client) Provider {
	if baseURL == "" {
		baseURL = DefaultUnsplashURL
	}
	return &unsplashProvider{baseURL: baseURL, key: accessKey, http: hc}
}

func (p *unsplashProvider) Name() string { return string(SourceUnsplash) }

func (p *unsplashProvider) Search(ctx context.Context, query string) (*Result, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("client_id", p.key)

	obj, err := getJSON(ctx, p.http, p.Name(), p.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	results, err := obj.GetObjectArray("results")
	if err != nil || len(results) == 0 {
		return nil, nil
	}
	imageURL, err := results[0].GetString("urls", "regular")
	if err != nil || imageURL == "" {
		return nil, nil
	}
	photographer, _ := results[0].GetString("user", "name")
	return &Result{URL: imageURL, Photographer: photographer, Source: SourceUnsplash}, nil
}

type pexelsProvider struct {
	baseURL string
	key     string
	http    *httpclient.Client
}

// NewPexels searches Pexels' /v1/search with the key in Authorization
func NewPexels(baseURL, apiKey string, hc *httpclient.Client) Provider {
	if baseURL == "" {
		baseURL = DefaultPexelsURL
	}
	return &pexelsProvider{baseURL: baseURL, key: apiKey, http: hc}
}

func (p *pexelsProvider) Name() string { return string(SourcePexels) }

func (p *pexelsProvider) Search(ctx context.Context, query string) (*Result, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")

	header := http.Header{}
	header.Set("Authorization", p.key)

	obj, err := getJSON(ctx, p.http, p.Name(), p.baseURL+"/v1/search?"+q.Encode(), header)
	if err != nil {
		return nil, err
	}

	photos, err := obj.GetObjectArray("photos")
	if err != nil || len(photos) == 0 {
		return nil, nil
	}
	imageURL, err := photos[0].GetString("src", "large")
	if err != nil || imageURL == "" {
		return nil, nil
	}
	photographer, _ := photos[0].GetString("photographer")
	return &Result{URL: imageURL, Photographer: photographer, Source: SourcePexels}, nil
}

func getJSON(ctx context.Context, hc *httpclient.Client, provider, rawURL string, header http.Header) (*jason.Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, providerError(err, provider, "create-request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := hc.Do(ctx, req)
	if err != nil {
		return nil, providerError(err, provider, "request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("%s search returned %d", provider, resp.StatusCode).
			Category(errors.CategoryImageSearch).
			Component("imagesearch").
			Context("provider", provider).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, providerError(err, provider, "read-body")
	}
	obj, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, providerError(err, provider, "parse-json")
	}
	return obj, nil
}

func providerError(err error, provider, op string) error {
	return errors.New(err).
		Category(errors.CategoryImageSearch).
		Component("imagesearch").
		Context("provider", provider).
		Context("operation", op).
		Build()
}
