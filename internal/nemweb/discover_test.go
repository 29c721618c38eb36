package nemweb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scadaListing = `<html><body><pre>
<a href="/Reports/Current/Dispatch_SCADA/PUBLIC_DISPATCHSCADA_202501151025_0000000412345678.zip">PUBLIC_DISPATCHSCADA_202501151025_0000000412345678.zip</a>
<a href="/Reports/Current/Dispatch_SCADA/PUBLIC_DISPATCHSCADA_202501151030_0000000412345679.zip">PUBLIC_DISPATCHSCADA_202501151030_0000000412345679.zip</a>
<a href="/Reports/Current/Dispatch_SCADA/PUBLIC_DISPATCHSCADA_202501151020_0000000412345677.zip">PUBLIC_DISPATCHSCADA_202501151020_0000000412345677.zip</a>
</pre></body></html>`

func TestReportListFiles(t *testing.T) {
	files := ReportDispatchSCADA.ListFiles(scadaListing)
	require.Len(t, files, 3)

	// Oldest first, and the duplicate anchor text collapses per file
	assert.Equal(t, "PUBLIC_DISPATCHSCADA_202501151020_0000000412345677.zip", files[0].Name)
	assert.Equal(t, time.Date(2025, time.January, 15, 10, 20, 0, 0, MarketTime), files[0].Published)
	assert.Equal(t, "PUBLIC_DISPATCHSCADA_202501151030_0000000412345679.zip", files[2].Name)
}

func TestReportLatestFile(t *testing.T) {
	f, err := ReportDispatchSCADA.LatestFile(scadaListing)
	require.NoError(t, err)
	assert.Equal(t, "PUBLIC_DISPATCHSCADA_202501151030_0000000412345679.zip", f.Name)

	_, err = ReportTradingIS.LatestFile(scadaListing)
	assert.Error(t, err)
}

func TestReportFilesAfter(t *testing.T) {
	cursor := time.Date(2025, time.January, 15, 10, 20, 0, 0, MarketTime)
	files := ReportDispatchSCADA.FilesAfter(scadaListing, cursor)
	require.Len(t, files, 2)
	assert.Equal(t, time.Date(2025, time.January, 15, 10, 25, 0, 0, MarketTime), files[0].Published)
}

func TestReportFileURL(t *testing.T) {
	url := ReportDispatchIS.FileURL(BaseURL, "PUBLIC_DISPATCHIS_202501151030_0000000412345679.zip")
	assert.Equal(t, "https://www.nemweb.com.au/Reports/Current/DispatchIS_Reports/PUBLIC_DISPATCHIS_202501151030_0000000412345679.zip", url)
}

func TestBidmoveListing(t *testing.T) {
	html := `<a href="x/PUBLIC_BIDMOVE_COMPLETE_20250115_0000000504578183.zip">PUBLIC_BIDMOVE_COMPLETE_20250115_0000000504578183.zip</a>`
	f, err := ReportBidmove.LatestFile(html)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, MarketTime), f.Published)
}

func TestArchiveURLs(t *testing.T) {
	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, MarketTime)

	assert.Equal(t,
		"https://www.nemweb.com.au/Reports/Archive/Dispatch_SCADA/2025/DISPATCH_SCADA_20250115.zip",
		DispatchSCADAArchiveURL(BaseURL, day))
	assert.Equal(t,
		"https://www.nemweb.com.au/Reports/Archive/Public_Prices/PUBLIC_PRICES_20250101.zip",
		PublicPricesArchiveURL(BaseURL, day))
	assert.Equal(t,
		"https://www.nemweb.com.au/Reports/Archive/Bidmove_Complete/PUBLIC_BIDMOVE_COMPLETE_20250115.zip",
		BidmoveArchiveURL(BaseURL, day))
}

func TestPublicPricesInnerName(t *testing.T) {
	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, MarketTime)
	assert.True(t, PublicPricesInnerName("PUBLIC_PRICES_202501150000_00000001.zip", day))
	assert.False(t, PublicPricesInnerName("PUBLIC_PRICES_202501160000_00000001.zip", day))
	assert.False(t, PublicPricesInnerName("PUBLIC_PRICES_202501150000_00000001.CSV", day))
}
