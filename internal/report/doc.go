// Package report renders run artifacts: a static PNG of the filtered and
// baseline paths, an interactive HTML page, and a JSON run summary.
package report
