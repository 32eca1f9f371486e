package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"path"
	"strings"
	"time"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrInvalidJSON      = errors.New("invalid json")
)

const defaultClientTimeout = 10 * time.Second

// maxResponseBytes caps how much of an upstream body is read into memory.
const maxResponseBytes = 8 << 20

var BuildVersion = "dev"

var UserAgentString = "doomscroll/" + BuildVersion + " +https://github.com/defeedco/doomscroll"

var DefaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 10,
	},
	Timeout: defaultClientTimeout,
}

type RequestDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewJSONRequest builds a GET request for baseURL with the given query parameters.
func NewJSONRequest(ctx context.Context, baseURL string, params neturl.Values) (*http.Request, error) {
	u, err := neturl.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgentString)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// DecodeJSONFromRequest executes the request and decodes a 200 response body into T.
// Transport failures are returned as is, non-200 responses wrap ErrUnexpectedStatus
// and undecodable bodies wrap ErrInvalidJSON.
func DecodeJSONFromRequest[T any](client RequestDoer, request *http.Request) (T, error) {
	var result T

	response, err := client.Do(request)
	if err != nil {
		return result, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return result, fmt.Errorf("read body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		truncatedBody, _ := LimitStringLength(string(body), 256)

		return result, fmt.Errorf(
			"%w %d from %s, response: %s",
			ErrUnexpectedStatus,
			response.StatusCode,
			request.URL,
			truncatedBody,
		)
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return result, nil
}

// URLExtension returns the lowercased file extension of the URL path, without the dot.
// Query strings and fragments are ignored.
func URLExtension(rawURL string) string {
	u, err := neturl.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	ext := path.Ext(u.Path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// StripURL removes the protocol, www., and trailing slash from a URL.
func StripURL(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "www.")
	url = strings.TrimSuffix(url, "/")
	return url
}

// ResolveURL resolves ref against base, returning ref unchanged when either fails to parse.
func ResolveURL(base string, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	refURL, err := neturl.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return ref
	}

	baseURL, err := neturl.Parse(base)
	if err != nil {
		return ref
	}

	return baseURL.ResolveReference(refURL).String()
}
