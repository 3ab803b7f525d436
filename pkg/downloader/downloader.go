package downloader

import (
	"context"

	"github.com/goran-ethernal/DepositIndexor/pkg/indexer"
)

// Downloader defines the interface for downloading and streaming the logs of one chain.
type Downloader interface {
	// RegisterIndexer registers the indexer that receives the chain's logs.
	// The downloader uses the indexer's EventsToIndex method to build its filter.
	RegisterIndexer(indexer indexer.Indexer) error

	// Download starts the download process, streaming batches to the indexer.
	// It continues until the context is cancelled or an error occurs.
	Download(ctx context.Context) error

	// Close gracefully stops the downloader, ensuring all resources are cleaned up.
	Close() error
}
