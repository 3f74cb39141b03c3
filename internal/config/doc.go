// Package config resolves typed bootstrap settings from the process
// environment. Every variable is optional and defaulted; construction happens
// in a single step so no caller ever observes a partially-initialized
// Settings value. Derived file paths are computed here once and reused by all
// other components.
package config
