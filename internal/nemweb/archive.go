package nemweb

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractLines decompresses a report archive in memory and returns the lines
// of its single inner CSV. A failure to open the ZIP or to find a CSV inside
// is a *FormatError.
func ExtractLines(archive []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &FormatError{Err: eris.Wrap(err, "open zip")}
	}

	for _, zf := range zr.File {
		if !strings.HasSuffix(strings.ToUpper(zf.Name), ".CSV") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, &FormatError{Err: eris.Wrapf(err, "open entry %s", zf.Name)}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &FormatError{Err: eris.Wrapf(err, "read entry %s", zf.Name)}
		}
		return splitLines(string(data)), nil
	}

	return nil, &FormatError{Err: eris.New("no CSV entry in archive")}
}

// InnerArchives walks a monthly archive (a ZIP of daily ZIPs) and returns
// the bytes of every nested archive whose name the filter accepts. Used by
// backfill against the Archive directory.
func InnerArchives(archive []byte, accept func(name string) bool) ([][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &FormatError{Err: eris.Wrap(err, "open monthly zip")}
	}

	var inner [][]byte
	for _, zf := range zr.File {
		if !strings.HasSuffix(strings.ToLower(zf.Name), ".zip") || !accept(zf.Name) {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		inner = append(inner, data)
	}
	return inner, nil
}

func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
