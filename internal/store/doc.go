// Package store persists run history and the explanation cache in SQLite.
//
// The database lives at <data_dir>/srtgram.db and is opened in WAL mode with
// a busy timeout; writes retry with backoff while another process holds the
// lock. The schema is embedded and versioned: a mismatched version is
// reported as ErrSchemaMismatch rather than migrated in place.
package store
