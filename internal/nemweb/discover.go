package nemweb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// BaseURL is the production portal root. Overridable for tests.
const BaseURL = "https://www.nemweb.com.au"

// Report describes one portal publication: where its current files live and
// what its filenames look like. Filenames embed a YYYYMMDDHHMM publication
// stamp which orders them; directory listings are plain HTML so discovery is
// a regex scrape, same as every other consumer of this portal.
type Report struct {
	Name       string
	CurrentDir string
	pattern    *regexp.Regexp // capture group 1 = publication stamp
}

var (
	ReportDispatchSCADA = Report{
		Name:       "dispatch_scada",
		CurrentDir: "/Reports/Current/Dispatch_SCADA/",
		pattern:    regexp.MustCompile(`PUBLIC_DISPATCHSCADA_(\d{12})_\d{16}\.zip`),
	}
	ReportDispatchIS = Report{
		Name:       "dispatch_price",
		CurrentDir: "/Reports/Current/DispatchIS_Reports/",
		pattern:    regexp.MustCompile(`PUBLIC_DISPATCHIS_(\d{12})_\d{16}\.zip`),
	}
	ReportTradingIS = Report{
		Name:       "trading_price",
		CurrentDir: "/Reports/Current/TradingIS_Reports/",
		pattern:    regexp.MustCompile(`PUBLIC_TRADINGIS_(\d{12})_\d{16}\.zip`),
	}
	ReportPublicPrices = Report{
		Name:       "public_price",
		CurrentDir: "/Reports/Current/Public_Prices/",
		pattern:    regexp.MustCompile(`PUBLIC_PRICES_(\d{12})_\d{14}\.zip`),
	}
	ReportPDPASA = Report{
		Name:       "pdpasa",
		CurrentDir: "/Reports/Current/PDPASA/",
		pattern:    regexp.MustCompile(`PUBLIC_PDPASA_(\d{12})_\d+\.zip`),
	}
	ReportSTPASA = Report{
		Name:       "stpasa",
		CurrentDir: "/Reports/Current/Short_Term_PASA_Reports/",
		pattern:    regexp.MustCompile(`PUBLIC_STPASA_(\d{12})_\d+\.zip`),
	}
	ReportBidmove = Report{
		Name:       "bid_bands",
		CurrentDir: "/Reports/Current/Bidmove_Complete/",
		pattern:    regexp.MustCompile(`PUBLIC_BIDMOVE_COMPLETE_(\d{8})_\d{16}\.zip`),
	}
)

const stampLayout = "200601021504"

// File is one discovered portal file.
type File struct {
	Name      string
	Published time.Time
}

// ListFiles extracts this report's files from a directory listing page,
// ordered oldest first. Duplicate anchors (the portal lists each file twice)
// collapse to one entry.
func (rep Report) ListFiles(html string) []File {
	seen := make(map[string]struct{})
	var files []File
	for _, m := range rep.pattern.FindAllStringSubmatch(html, -1) {
		name := m[0]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		stamp := m[1]
		layout := stampLayout
		if len(stamp) == 8 {
			layout = "20060102"
		}
		ts, err := time.ParseInLocation(layout, stamp, MarketTime)
		if err != nil {
			continue
		}
		files = append(files, File{Name: name, Published: ts})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].Published.Equal(files[j].Published) {
			return files[i].Published.Before(files[j].Published)
		}
		return files[i].Name < files[j].Name
	})
	return files
}

// LatestFile returns the newest file in a directory listing.
func (rep Report) LatestFile(html string) (File, error) {
	files := rep.ListFiles(html)
	if len(files) == 0 {
		return File{}, eris.Errorf("no %s files in directory listing", rep.Name)
	}
	return files[len(files)-1], nil
}

// FilesAfter returns files published strictly after the cursor, oldest
// first, so a catch-up pass replays them in order.
func (rep Report) FilesAfter(html string, cursor time.Time) []File {
	var out []File
	for _, f := range rep.ListFiles(html) {
		if f.Published.After(cursor) {
			out = append(out, f)
		}
	}
	return out
}

// FileURL builds the download URL for a file in the current directory.
func (rep Report) FileURL(base, name string) string {
	return base + rep.CurrentDir + name
}

// Archive URL builders. Backfill reaches for different layouts per report:
// SCADA archives are one ZIP per day under a year directory, public prices
// and bids are monthly ZIPs of nested daily ZIPs.

// DispatchSCADAArchiveURL is the daily archive for a market date.
func DispatchSCADAArchiveURL(base string, day time.Time) string {
	return fmt.Sprintf("%s/Reports/Archive/Dispatch_SCADA/%d/DISPATCH_SCADA_%s.zip",
		base, day.Year(), day.Format("20060102"))
}

// PublicPricesArchiveURL is the monthly archive holding a market date.
func PublicPricesArchiveURL(base string, day time.Time) string {
	return fmt.Sprintf("%s/Reports/Archive/Public_Prices/PUBLIC_PRICES_%s01.zip",
		base, day.Format("200601"))
}

// BidmoveArchiveURL is the daily bids archive within the monthly listing.
func BidmoveArchiveURL(base string, day time.Time) string {
	return fmt.Sprintf("%s/Reports/Archive/Bidmove_Complete/PUBLIC_BIDMOVE_COMPLETE_%s.zip",
		base, day.Format("20060102"))
}

// PublicPricesInnerName reports whether an entry inside a monthly public
// prices archive is the daily ZIP for the given market date.
func PublicPricesInnerName(name string, day time.Time) bool {
	want := fmt.Sprintf("PUBLIC_PRICES_%s0000", day.Format("20060102"))
	return strings.Contains(name, want) && strings.HasSuffix(strings.ToLower(name), ".zip")
}
