package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	syncrepo "github.com/kidopedia/kidopedia/internal/database/sync"
	"github.com/kidopedia/kidopedia/internal/database/words"
	"github.com/kidopedia/kidopedia/internal/dictionary"
	"github.com/kidopedia/kidopedia/internal/http"
	"github.com/kidopedia/kidopedia/internal/lookup"
	"github.com/kidopedia/kidopedia/internal/profiles"
	"github.com/kidopedia/kidopedia/internal/remote"
	"github.com/kidopedia/kidopedia/internal/scheduler"
	"github.com/kidopedia/kidopedia/internal/tasks"
	"github.com/kidopedia/kidopedia/internal/wordsync"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Local word table
var _ lookup.LocalStore = (*words.Repository)(nil)
var _ wordsync.WordCounter = (*words.Repository)(nil)

// Sync checkpoint
var _ wordsync.CheckpointStore = (*syncrepo.Repository)(nil)

// =============================================================================
// External Services
// =============================================================================

// Remote backend
var _ wordsync.WordSource = (*remote.Client)(nil)
var _ lookup.RemoteCache = (*remote.Client)(nil)
var _ profiles.Sink = (*remote.Client)(nil)
var _ tasks.SearchCounter = (*remote.Client)(nil)

// DictionaryClient implementations
var _ dictionary.Client = (*dictionary.FunctionClient)(nil)
var _ dictionary.Client = (*dictionary.FreeDictionaryClient)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ profiles.Scheduler = (*tasks.Dispatcher)(nil)
var _ profiles.Scheduler = (*tasks.InlineDispatcher)(nil)
var _ lookup.Scheduler = (*tasks.Dispatcher)(nil)
var _ lookup.Scheduler = (*tasks.InlineDispatcher)(nil)
var _ http.SyncDispatcher = (*tasks.Dispatcher)(nil)

var _ tasks.ProfilePusher = (*profiles.Service)(nil)
var _ tasks.Syncer = (*wordsync.Orchestrator)(nil)
var _ scheduler.SyncRunner = (*wordsync.Orchestrator)(nil)

// =============================================================================
// HTTP API
// =============================================================================

var _ http.WordService = (*lookup.Service)(nil)
var _ http.ProfileService = (*profiles.Service)(nil)
var _ http.ViewTracker = (*profiles.Service)(nil)
var _ http.SyncService = (*wordsync.Orchestrator)(nil)
