package gallery

import (
	"context"
	"errors"

	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/rs/zerolog"
)

// ErrMalformedResponse is wrapped by adapters when a response decodes
// but doesn't have the shape they expect.
var ErrMalformedResponse = errors.New("malformed response")

// Cursor is an opaque continuation token. The empty cursor means "from the start".
type Cursor string

type PageRequest struct {
	Cursor Cursor
	Count  int
}

// Page is what an adapter produces on a successful upstream call.
type Page struct {
	Images []ImageResult
	Next   Cursor
	// Done is set when the upstream reports there is nothing after this page.
	Done bool
}

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeEmpty
	OutcomeMalformed
	OutcomeNetworkFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeNetworkFailure:
		return "network_failure"
	}
	return "unknown"
}

// Successful reports whether the upstream answered with a usable document,
// with or without images.
func (o Outcome) Successful() bool {
	return o == OutcomeOK || o == OutcomeEmpty
}

// PageResult is the collapsed, never-failing result of Feed.FetchPage.
// On failure Images is empty and Next equals the requested cursor.
type PageResult struct {
	Images  []ImageResult
	Next    Cursor
	Done    bool
	Outcome Outcome
	Err     error
}

// Feed is a single independently paginated upstream image source.
// Partitions of a provider are separate feeds.
type Feed interface {
	// UID identifies the feed and keys its cursor.
	UID() lib.TypedUID
	// FetchPage must not fail: errors are reported through PageResult.Outcome.
	FetchPage(ctx context.Context, req PageRequest) PageResult
}

// Collapse converts an adapter's (Page, error) pair into a PageResult.
// Adapters call it at their boundary so that nothing above them sees an error.
func Collapse(logger *zerolog.Logger, req PageRequest, page Page, err error) PageResult {
	if err != nil {
		outcome := classify(err)
		logger.Warn().
			Err(err).
			Str("cursor", string(req.Cursor)).
			Stringer("outcome", outcome).
			Msg("Feed page fetch failed")

		return PageResult{
			Next:    req.Cursor,
			Outcome: outcome,
			Err:     err,
		}
	}

	images := Dedupe(FilterImages(toStrings(page.Images)))

	outcome := OutcomeOK
	if len(images) == 0 {
		outcome = OutcomeEmpty
	}

	return PageResult{
		Images:  images,
		Next:    page.Next,
		Done:    page.Done,
		Outcome: outcome,
	}
}

func classify(err error) Outcome {
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, lib.ErrInvalidJSON) {
		return OutcomeMalformed
	}
	return OutcomeNetworkFailure
}
