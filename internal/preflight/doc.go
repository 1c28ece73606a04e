// Package preflight provides readiness checks for the wikis, the completion
// API, and the output directories a command depends on.
//
// The CLI runs the checks relevant to a command before touching any data, and
// "bahaibot check" prints all of them. Checks for unconfigured endpoints are
// skipped.
package preflight
