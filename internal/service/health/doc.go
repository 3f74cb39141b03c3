// Package health serves the minimal liveness endpoint external platforms
// poll to verify the node is up. It binds before any bootstrap work starts
// and keeps answering even after a fatal bootstrap failure, so monitoring
// never misreports a total outage.
package health
