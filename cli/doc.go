// Package cli implements the metacheck command-line interface.
//
// The cli package provides:
// - analysis of one or more pages, fetched or read from a file
// - a colored text report or the JSON report used by the HTTP API
package cli
