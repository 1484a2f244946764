// Package report renders a run's analysis as a standalone HTML page and
// writes the metadata.json summary beside it.
package report
