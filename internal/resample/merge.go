package resample

import (
	"sort"

	"github.com/gridwatch/nemsync/internal/model"
)

// MergePrices combines an archival price series with a near-real-time one.
// For every timestamp present in either input the archival value wins;
// dispatch fills the rest. Timestamps absent from both are absent from the
// output. The result carries PriceMerged and is sorted ascending.
func MergePrices(archival, dispatch []model.PriceRecord) []model.PriceRecord {
	type key struct {
		ts     int64
		region string
	}

	merged := make(map[key]model.PriceRecord)
	for _, r := range dispatch {
		merged[key{r.SettlementDate.UnixNano(), r.Region}] = r
	}
	for _, r := range archival {
		merged[key{r.SettlementDate.UnixNano(), r.Region}] = r
	}

	out := make([]model.PriceRecord, 0, len(merged))
	for _, r := range merged {
		r.PriceType = model.PriceMerged
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SettlementDate.Equal(out[j].SettlementDate) {
			return out[i].SettlementDate.Before(out[j].SettlementDate)
		}
		return out[i].Region < out[j].Region
	})
	return out
}
