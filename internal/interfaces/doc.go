// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - LocalStore: On-device word table used by lookups (internal/lookup/service.go)
//   - CheckpointStore: Sync checkpoint and page commits (internal/wordsync/orchestrator.go)
//   - WordCounter: Local word count for download status (internal/wordsync/orchestrator.go)
//
// ## External Service Interfaces
//
//   - WordSource: Paginated remote corpus (internal/wordsync/orchestrator.go)
//   - RemoteCache: Shared remote word table (internal/lookup/service.go)
//   - Sink: Remote profile backup (internal/profiles/service.go)
//   - dictionary.Client: Live word definitions (internal/dictionary/client.go)
//
// ## Background Work Interfaces
//
//   - profiles.Scheduler / lookup.Scheduler: fire-and-forget remote writes,
//     served by the task queue or by goroutines (internal/tasks/dispatcher.go)
//   - SyncRunner: what the periodic sync check drives (internal/scheduler/dictionary_sync.go)
//
// # Adding a New Dictionary Provider
//
//  1. Implement Client in internal/dictionary/ and return a LookupResult:
//     NotFound for a definitive miss, Malformed for an unusable body, and an
//     error only for transport failures.
//
//     type WiktionaryClient struct {
//         http *resty.Client
//     }
//
//     func (c *WiktionaryClient) Name() string { return "wiktionary" }
//     func (c *WiktionaryClient) Lookup(ctx context.Context, word string) (LookupResult, error)
//
//  2. Add a provider value in internal/config and select it in
//     newDictionaryClient (internal/entrypoint/app.go).
//
//  3. Add a compile-time check to checks.go.
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register its entities in the migration list and add it to database.Store.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
