// Package render produces the generated files the launched services consume:
// the web service config, the monitoring agent config, the node list and its
// base64 subscription. All functions are pure templating over Settings; the
// sequencer decides where and when the results are written.
package render
