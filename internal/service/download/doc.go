// Package download fetches executable artifacts over HTTP. The Fetcher
// streams one artifact to disk and marks it executable; the Orchestrator runs
// a whole artifact set concurrently and treats any single failure as fatal to
// the batch. There is no retry policy: a failed batch is reported once and
// retried only on the next process start.
package download
