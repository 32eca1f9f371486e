package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/lib"
)

const (
	CommonsAPIURL   = "https://commons.wikimedia.org/w/api.php"
	WikipediaAPIURL = "https://en.wikipedia.org/w/api.php"
)

// NamespaceFile is the namespace of File: pages.
const NamespaceFile = 6

// ErrAPI marks an error document returned by the API. The transport worked,
// so it counts as a malformed response.
var ErrAPI = fmt.Errorf("mediawiki api error: %w", gallery.ErrMalformedResponse)

// Client talks to the action API of a MediaWiki installation.
// Responses are requested with formatversion=2, so pages come back as a list.
// See: https://www.mediawiki.org/wiki/API:Query
type Client struct {
	httpClient lib.RequestDoer
	apiURL     string
}

func NewClient(apiURL string, httpClient lib.RequestDoer) *Client {
	if httpClient == nil {
		httpClient = lib.DefaultHTTPClient
	}

	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(apiURL, "/"),
	}
}

func (c *Client) APIURL() string {
	return c.apiURL
}

type QueryResponse struct {
	BatchComplete bool      `json:"batchcomplete"`
	Continue      *Continue `json:"continue"`
	Query         *Query    `json:"query"`
	Error         *APIError `json:"error"`
}

type Continue struct {
	GSROffset  *int   `json:"gsroffset"`
	IMContinue string `json:"imcontinue"`
	Continue   string `json:"continue"`
}

type Query struct {
	Pages []*Page `json:"pages"`
}

type Page struct {
	PageID    int          `json:"pageid"`
	Namespace int          `json:"ns"`
	Title     string       `json:"title"`
	Index     int          `json:"index"`
	Missing   bool         `json:"missing"`
	ImageInfo []*ImageInfo `json:"imageinfo"`
	Images    []*PageImage `json:"images"`
}

type ImageInfo struct {
	URL  string `json:"url"`
	MIME string `json:"mime"`
}

type PageImage struct {
	Namespace int    `json:"ns"`
	Title     string `json:"title"`
}

type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// FirstImageInfo returns the first imageinfo revision that carries a URL.
func (p *Page) FirstImageInfo() (*ImageInfo, bool) {
	if p == nil || p.Missing || len(p.ImageInfo) == 0 || p.ImageInfo[0] == nil {
		return nil, false
	}
	if p.ImageInfo[0].URL == "" {
		return nil, false
	}
	return p.ImageInfo[0], true
}

// Query runs action=query with the given parameters.
func (c *Client) Query(ctx context.Context, params url.Values) (*QueryResponse, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	for key, values := range params {
		q[key] = values
	}

	req, err := lib.NewJSONRequest(ctx, c.apiURL, q)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := lib.DecodeJSONFromRequest[*QueryResponse](c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("decode query: %w: null body", lib.ErrInvalidJSON)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrAPI, resp.Error.Code, resp.Error.Info)
	}

	return resp, nil
}

// SearchFiles runs a full text search over File: pages and returns their image info.
// offset is the gsroffset continuation value, empty for the first page.
func (c *Client) SearchFiles(ctx context.Context, search string, limit int, offset string) (*QueryResponse, error) {
	params := url.Values{}
	params.Set("generator", "search")
	params.Set("gsrsearch", search)
	params.Set("gsrnamespace", fmt.Sprintf("%d", NamespaceFile))
	params.Set("gsrlimit", fmt.Sprintf("%d", limit))
	if offset != "" {
		params.Set("gsroffset", offset)
	}
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|mime")

	return c.Query(ctx, params)
}

// PageImages lists the files used on an article page.
// imcontinue is the continuation value of the previous call, empty for the first page.
func (c *Client) PageImages(ctx context.Context, title string, limit int, imcontinue string) (*QueryResponse, error) {
	params := url.Values{}
	params.Set("prop", "images")
	params.Set("titles", title)
	params.Set("imlimit", fmt.Sprintf("%d", limit))
	if imcontinue != "" {
		params.Set("imcontinue", imcontinue)
	}

	return c.Query(ctx, params)
}

// ImageInfo resolves a single File: title to its URL and MIME type.
func (c *Client) ImageInfo(ctx context.Context, fileTitle string) (*ImageInfo, error) {
	params := url.Values{}
	params.Set("prop", "imageinfo")
	params.Set("titles", fileTitle)
	params.Set("iiprop", "url|mime")

	resp, err := c.Query(ctx, params)
	if err != nil {
		return nil, err
	}

	if resp.Query == nil {
		return nil, fmt.Errorf("no query in response for %s", fileTitle)
	}

	for _, page := range resp.Query.Pages {
		if info, ok := page.FirstImageInfo(); ok {
			return info, nil
		}
	}

	return nil, fmt.Errorf("no image info for %s", fileTitle)
}
