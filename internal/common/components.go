package common

const (
	ComponentDownloader  = "downloader"
	ComponentSyncManager = "sync-manager"
	ComponentIndexer     = "indexer"
	ComponentHandlers    = "handlers"
	ComponentSnapshot    = "snapshot"
	ComponentFetcher     = "fetcher"
	ComponentStore       = "store"
	ComponentRPC         = "rpc"
	ComponentAPI         = "api"
	ComponentMetrics     = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentDownloader:  {},
	ComponentSyncManager: {},
	ComponentIndexer:     {},
	ComponentHandlers:    {},
	ComponentSnapshot:    {},
	ComponentFetcher:     {},
	ComponentStore:       {},
	ComponentRPC:         {},
	ComponentAPI:         {},
	ComponentMetrics:     {},
}

var ValidLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}
