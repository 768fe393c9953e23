// Package database provides the local store: a single sqlite database
// accessed through gorm.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, catalog seeding
//	├── store.go         # Store: all repositories over one handle
//	├── words/           # Words and the prefix search index
//	├── profiles/        # Profiles and cascade delete
//	├── progress/        # Per-profile word views and favorites
//	├── achievements/    # Achievement catalog and unlocks
//	├── streaks/         # Daily activity streaks
//	├── searches/        # Recent searches log
//	├── syncmeta/        # Key-value metadata
//	└── sync/            # Sync checkpoint over syncmeta
//
// # Using the Store
//
//	db, err := database.NewDatabase("./kidopedia.db", log)
//	store := database.NewStore(db)
//
//	word, err := store.Words.GetWord("elephant")
//	results, err := store.Words.SearchWords("ele", 20)
//
// # Concurrency
//
// The pool is limited to one connection. Every write, including
// read-modify-write transactions such as view tracking, runs on that
// connection in turn, so concurrent callers never lose updates. Code running
// inside a transaction must use the transaction handle only; reaching for
// the outer handle would wait on the connection the transaction holds.
//
// # Interface Implementations
//
//   - words.Repository: implements lookup.LocalStore
//   - sync.Repository: implements wordsync.CheckpointStore
//   - Store: implements http.Store
package database
