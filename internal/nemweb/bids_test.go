package nemweb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBidBands(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"I,BIDDAYOFFER_D,,2,SETTLEMENTDATE,DUID,BIDTYPE,PRICEBAND1,PRICEBAND2",
		"D,BIDDAYOFFER_D,,2,\"2025/01/15 00:00:00\",BW01,ENERGY,-52.40,41.00",
		// FCAS offer for the same unit is excluded
		"D,BIDDAYOFFER_D,,2,\"2025/01/15 00:00:00\",BW01,RAISE6SEC,0.10,1.50",
		"I,BIDPEROFFER_D,,2,SETTLEMENTDATE,DUID,BIDTYPE,PERIODID,BANDAVAIL1,BANDAVAIL2",
		"D,BIDPEROFFER_D,,2,\"2025/01/15 00:00:00\",BW01,ENERGY,1,300,120",
		"D,BIDPEROFFER_D,,2,\"2025/01/15 00:00:00\",BW01,ENERGY,2,340,90",
		"D,BIDPEROFFER_D,,2,\"2025/01/15 00:00:00\",BW01,RAISE6SEC,1,660,660",
	})

	records, skipped, err := ParseBidBands(archive)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 2)

	// Band volume is the day's maximum availability across intervals.
	assert.Equal(t, 1, records[0].BandNo)
	assert.Equal(t, -52.40, records[0].Price)
	assert.Equal(t, 340.0, records[0].Volume)
	assert.Equal(t, "ENERGY", records[0].BidType)

	assert.Equal(t, 2, records[1].BandNo)
	assert.Equal(t, 41.00, records[1].Price)
	assert.Equal(t, 120.0, records[1].Volume)
}

func TestParseBidBands_PriceWithoutVolume(t *testing.T) {
	// A priced band with no per-interval rows still appears, volume zero.
	archive := zipCSV(t, "x.CSV", []string{
		"I,BIDDAYOFFER_D,,2,SETTLEMENTDATE,DUID,BIDTYPE,PRICEBAND1",
		"D,BIDDAYOFFER_D,,2,\"2025/01/15 00:00:00\",ER01,ENERGY,15500.00",
	})

	records, skipped, err := ParseBidBands(archive)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, 15500.00, records[0].Price)
	assert.Equal(t, 0.0, records[0].Volume)
}
