package port

import "context"

// DataFetcher is the abstract "fetch JSON" capability the engine consumes for
// every remote call. Implementations GET the URL and decode the response body
// into out.
type DataFetcher interface {
	FetchJSON(ctx context.Context, url string, out any) error
}
