// Package textutil provides small string helpers shared by the pipeline and
// CLI: filesystem-safe names for output directories and rune-aware
// truncation for table cells.
package textutil
