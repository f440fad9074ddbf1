// Package mocks provides test doubles for ports interfaces.
//
// These mocks are simple, thread-safe, in-memory implementations suitable for
// unit testing. Each mock provides:
//
//   - Default behavior mirroring the Postgres repository
//   - Callback functions (xxxFn) for injecting failures per test
//   - Helper methods for setting state directly
//
// # Usage Example
//
//	func TestIndexing(t *testing.T) {
//		store := mocks.NewStore()
//		store.PutChannel(domain.NewChannelSource(100, "movies"))
//
//		p := indexing.New(store, store, parser, corpus, nil, logger)
//		// ... exercise the pipeline and inspect store.Items()
//	}
//
// # Available Mocks
//
//   - Store: implements ports.ItemRepository, ports.ChannelRepository, ports.UserRepository and ports.ItemJanitor
//   - Locker: implements ports.Locker
//   - PageCache: implements ports.PageCache
package mocks
