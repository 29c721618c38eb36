package ingest

import (
	"context"
	"time"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/nemweb"
)

// archiveIngester persists one downloaded report archive and returns the
// rows written and parser rows skipped.
type archiveIngester func(ctx context.Context, archive []byte) (int64, int, error)

// syncCurrent is the shared catch-up walk over a report's current directory:
// list, take everything published after the cursor (or just the newest file
// on first run), download and ingest in publication order. The returned
// cursor is the stamp of the last file fully persisted.
func syncCurrent(ctx context.Context, f fetcher.Fetcher, name, base string, rep nemweb.Report, cursor *time.Time, ingest archiveIngester) (*Result, error) {
	dirURL := base + rep.CurrentDir
	html, err := f.ListDirectory(ctx, dirURL)
	if err != nil {
		return nil, &FetchError{Source: name, URL: dirURL, Err: err}
	}

	var files []nemweb.File
	if cursor == nil {
		latest, err := rep.LatestFile(html)
		if err != nil {
			// Empty directory is a valid state, not a failure.
			return &Result{}, nil
		}
		files = []nemweb.File{latest}
	} else {
		files = rep.FilesAfter(html, *cursor)
	}

	res := &Result{}
	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		url := rep.FileURL(base, file.Name)
		archive, err := f.Get(ctx, url)
		if err != nil {
			return nil, &FetchError{Source: name, URL: url, Err: err}
		}

		rows, skipped, err := ingest(ctx, archive)
		if err != nil {
			return nil, err
		}

		res.Rows += rows
		res.Skipped += skipped
		published := file.Published
		res.Cursor = &published
	}
	return res, nil
}
