package nemweb

import (
	"fmt"
	"sort"

	"github.com/gridwatch/nemsync/internal/model"
)

const bidBands = 10

type bidKey struct {
	duid string
	band int
}

// ParseBidBands decodes a daily bids archive into per-unit price/volume
// bands. BIDDAYOFFER_D carries the ten band prices a unit committed to for
// the market day; BIDPEROFFER_D carries the per-interval availability of
// each band. Both tables are header-driven. Only ENERGY bids are kept —
// FCAS offers share the tables but are a different market.
//
// The daily volume reported for a band is the maximum availability the unit
// offered in that band across the day's intervals.
func ParseBidBands(archive []byte) ([]model.BidBandRecord, int, error) {
	lines, err := ExtractLines(archive)
	if err != nil {
		return nil, 0, err
	}

	var dayHeader, perHeader map[string]int
	prices := make(map[bidKey]model.BidBandRecord)
	volumes := make(map[bidKey]float64)
	skipped := 0

	for _, line := range lines {
		r := splitRow(line)
		k := r.key()

		switch {
		case k.table == "BIDDAYOFFER_D":
			if k.class == "I" {
				dayHeader = headerIndex(r)
				continue
			}
			if k.class != "D" {
				continue
			}
			if dayHeader == nil {
				skipped++
				continue
			}
			if r.named(dayHeader, "BIDTYPE") != "ENERGY" {
				continue
			}
			ts, err := r.namedTime(dayHeader, "SETTLEMENTDATE")
			if err != nil {
				skipped++
				continue
			}
			duid := r.named(dayHeader, "DUID")
			if duid == "" {
				skipped++
				continue
			}
			for band := 1; band <= bidBands; band++ {
				price, ok := r.namedOptFloat(dayHeader, fmt.Sprintf("PRICEBAND%d", band))
				if !ok {
					continue
				}
				prices[bidKey{duid, band}] = model.BidBandRecord{
					SettlementDate: ts,
					DUID:           duid,
					BidType:        "ENERGY",
					BandNo:         band,
					Price:          price,
				}
			}

		case k.table == "BIDPEROFFER_D":
			if k.class == "I" {
				perHeader = headerIndex(r)
				continue
			}
			if k.class != "D" {
				continue
			}
			if perHeader == nil {
				skipped++
				continue
			}
			if r.named(perHeader, "BIDTYPE") != "ENERGY" {
				continue
			}
			duid := r.named(perHeader, "DUID")
			if duid == "" {
				skipped++
				continue
			}
			for band := 1; band <= bidBands; band++ {
				avail, ok := r.namedOptFloat(perHeader, fmt.Sprintf("BANDAVAIL%d", band))
				if !ok {
					continue
				}
				key := bidKey{duid, band}
				if avail > volumes[key] {
					volumes[key] = avail
				}
			}
		}
	}

	records := make([]model.BidBandRecord, 0, len(prices))
	for key, rec := range prices {
		rec.Volume = volumes[key]
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].DUID != records[j].DUID {
			return records[i].DUID < records[j].DUID
		}
		return records[i].BandNo < records[j].BandNo
	})

	return records, skipped, nil
}
