// Package artifact models downloadable executables: which binaries a given
// configuration requires and where to fetch them for the detected machine
// architecture. It holds pure domain logic with no I/O.
package artifact
