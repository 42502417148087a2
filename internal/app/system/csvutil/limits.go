// internal/app/system/csvutil/limits.go
package csvutil

// MaxExportRows caps a single export so one request cannot stream the
// whole database.
const MaxExportRows = 20000
