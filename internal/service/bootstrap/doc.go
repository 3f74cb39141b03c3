// Package bootstrap is the top-level sequencer: it prepares the working
// directory, starts the health endpoint on its own goroutine, downloads the
// artifact set all-or-nothing, launches the background services in order and
// then idles for the process lifetime. It is the single place deciding which
// failures are fatal to the bootstrap.
package bootstrap
