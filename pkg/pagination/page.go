package pagination

import (
	"context"

	"github.com/Sternrassler/sf-bulk-report/pkg/client"
	"github.com/Sternrassler/sf-bulk-report/pkg/record"
)

// Page is one response of a paginated collection.
type Page struct {
	Done           bool
	NextRecordsURL string
	Records        []record.Record
}

// PageFetcher retrieves a single page by absolute URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*Page, error)
}

// pagePayload mirrors the wire format. Records is a pointer so that an
// absent field can be told apart from an empty list.
type pagePayload struct {
	Done           bool             `json:"done"`
	NextRecordsURL string           `json:"nextRecordsUrl"`
	Records        *[]record.Record `json:"records"`
}

// HTTPPageFetcher fetches pages through a client that already carries
// the bearer token.
type HTTPPageFetcher struct {
	client *client.Client
}

// NewHTTPPageFetcher creates a fetcher backed by c.
func NewHTTPPageFetcher(c *client.Client) *HTTPPageFetcher {
	return &HTTPPageFetcher{client: c}
}

// FetchPage GETs pageURL. Non-200 responses surface as *client.HTTPError;
// a body without a records list is a *client.MalformedResponseError.
func (f *HTTPPageFetcher) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	var payload pagePayload
	if err := f.client.GetJSON(ctx, pageURL, &payload); err != nil {
		return nil, err
	}

	if payload.Records == nil {
		return nil, &client.MalformedResponseError{
			Source: pageURL,
			Fields: []string{"records"},
		}
	}

	return &Page{
		Done:           payload.Done,
		NextRecordsURL: payload.NextRecordsURL,
		Records:        *payload.Records,
	}, nil
}
