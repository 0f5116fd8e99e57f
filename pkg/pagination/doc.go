// Package pagination walks Salesforce cursor-paginated collections.
//
// A collection response carries a page of records plus an optional
// nextRecordsUrl cursor. Walker follows cursors one page at a time until a
// page has no cursor, accumulating records in response order:
//
//	fetcher := pagination.NewHTTPPageFetcher(authedClient)
//	walker := pagination.NewWalker(fetcher, pagination.DefaultConfig())
//	jobs, err := walker.FetchAll(ctx, instanceURL, "/services/data/v47.0/jobs/ingest")
//
// The walk:
//   - follows nextRecordsUrl whenever it is non-empty, even if done is true
//   - resolves relative cursors against the base URL
//   - stops with ErrCursorCycle when a cursor repeats
//   - stops with ErrPageLimit or ErrRecordLimit when configured limits are exceeded
//   - fails on the first page error; no partial results are returned
package pagination
