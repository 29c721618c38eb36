package nemweb

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zipCSV packs CSV lines into a single-entry report archive.
func zipCSV(t *testing.T, name string, lines []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Join(lines, "\r\n")))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// zipNested packs inner ZIPs into a monthly archive.
func zipNested(t *testing.T, inner map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range inner {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractLines(t *testing.T) {
	archive := zipCSV(t, "PUBLIC_DISPATCHSCADA_202501151030.CSV", []string{
		"C,NEMP.WORLD,DISPATCHSCADA,AEMO",
		"",
		"I,DISPATCH,UNIT_SCADA,1,SETTLEMENTDATE,DUID,SCADAVALUE",
		"D,DISPATCH,UNIT_SCADA,1,\"2025/01/15 10:30:00\",BASTYAN,82.5",
	})

	lines, err := ExtractLines(archive)
	require.NoError(t, err)
	// Blank line dropped
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "C,"))
}

func TestExtractLines_NotAZip(t *testing.T) {
	_, err := ExtractLines([]byte("this is not a zip"))
	require.Error(t, err)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestExtractLines_NoCSVEntry(t *testing.T) {
	archive := zipNested(t, map[string][]byte{"README.txt": []byte("nope")})
	_, err := ExtractLines(archive)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestInnerArchives(t *testing.T) {
	day15 := zipCSV(t, "a.CSV", []string{"C,header"})
	day16 := zipCSV(t, "b.CSV", []string{"C,header"})
	monthly := zipNested(t, map[string][]byte{
		"PUBLIC_PRICES_202501150000_0000000000001.zip": day15,
		"PUBLIC_PRICES_202501160000_0000000000002.zip": day16,
		"NOTES.txt": []byte("ignored"),
	})

	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, MarketTime)
	inner, err := InnerArchives(monthly, func(name string) bool {
		return PublicPricesInnerName(name, day)
	})
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, day15, inner[0])
}

func TestParseTime(t *testing.T) {
	ts, err := ParseTime("2025/01/15 10:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 15, 10, 30, 0, 0, MarketTime), ts)
	assert.True(t, ts.Equal(time.Date(2025, time.January, 15, 0, 30, 0, 0, time.UTC)))

	_, err = ParseTime("15/01/2025 10:30")
	assert.Error(t, err)
}
