package ingest

import "fmt"

// FetchError indicates the portal could not be reached or refused the
// request. It is not retried within a cycle; the next scheduled cycle
// catches up via the cursor.
type FetchError struct {
	Source string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ingest: fetch %s (%s): %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError indicates a write failed. The source's cursor is not
// advanced for the cycle, so the same files are replayed next cycle; the
// upsert semantics make the replay safe.
type PersistenceError struct {
	Source string
	Table  string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ingest: persist %s into %s: %v", e.Source, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
