// Package wordsync brings the local word corpus into agreement with the
// remote corpus.
//
// A sync walks the remote corpus page by page, most popular words first.
// Each page is written together with the offset that follows it, so an
// interrupted run resumes at the first page that was not stored. Page
// fetches are retried with exponential backoff; cancellation is polled
// before every page and leaves the checkpoint in the failed state.
//
// State machine:
//
//	never_synced -> in_progress -> completed
//	in_progress  -> failed        (error or cancellation)
//	failed       -> in_progress   (retry)
//	completed    -> in_progress   (scheduled or forced re-sync)
package wordsync
