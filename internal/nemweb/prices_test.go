package nemweb

import (
	"testing"
	"time"

	"github.com/gridwatch/nemsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDispatchPrices_Version3(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"I,DISPATCH,PRICE,3,SETTLEMENTDATE,RUNNO,REGIONID,DISPATCHINTERVAL,RRP,EEP",
		// Version 3: RRP at index 8
		"D,DISPATCH,PRICE,3,\"2025/01/15 10:30:00\",1,NSW1,20250115061,88.21,0",
		"D,DISPATCH,PRICE,3,\"2025/01/15 10:30:00\",1,VIC1,20250115061,76.40,0",
		"D,DISPATCH,REGIONSUM,4,\"2025/01/15 10:30:00\",1,NSW1,20250115061,0,7520.5",
	})

	records, skipped, err := ParseDispatchPrices(archive)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 2)

	assert.Equal(t, "NSW", records[0].Region)
	assert.Equal(t, 88.21, records[0].Price)
	assert.Equal(t, 7520.5, records[0].TotalDemand)
	assert.Equal(t, model.PriceDispatch, records[0].PriceType)

	// No REGIONSUM row for VIC -> demand stays absent, price still kept
	assert.Equal(t, "VIC", records[1].Region)
	assert.Equal(t, 76.40, records[1].Price)
	assert.Equal(t, 0.0, records[1].TotalDemand)
}

func TestParseDispatchPrices_Version5InterventionColumn(t *testing.T) {
	// Version 5 inserts INTERVENTION at index 8, pushing RRP to index 9.
	archive := zipCSV(t, "x.CSV", []string{
		"D,DISPATCH,PRICE,5,\"2025/01/15 10:30:00\",1,QLD1,20250115061,0,102.75,0",
	})

	records, skipped, err := ParseDispatchPrices(archive)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "QLD", records[0].Region)
	assert.Equal(t, 102.75, records[0].Price)
}

func TestParseTradingPrices(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"D,TRADING,PRICE,2,\"2025/01/15 10:30:00\",1,SA1,21,93.10",
		"D,TRADING,REGIONSUM,4,\"2025/01/15 10:30:00\",1,SA1,21,0,1610.2",
		// Malformed price is skipped, not zeroed
		"D,TRADING,PRICE,2,\"2025/01/15 10:30:00\",1,TAS1,21,",
	})

	records, skipped, err := ParseTradingPrices(archive)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "SA", records[0].Region)
	assert.Equal(t, 93.10, records[0].Price)
	assert.Equal(t, 1610.2, records[0].TotalDemand)
	assert.Equal(t, model.PriceTrading, records[0].PriceType)
}

func TestParsePublicPrices(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"D,DREGION,,3,\"2025/01/15 10:30:00\",1,NSW1,0,85.40,0,0,0,0,7355.8",
		// Short row
		"D,DREGION,,3,\"2025/01/15 10:30:00\",1,VIC1,0,72.00",
	})

	records, skipped, err := ParsePublicPrices(archive)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "NSW", records[0].Region)
	assert.Equal(t, 85.40, records[0].Price)
	assert.Equal(t, 7355.8, records[0].TotalDemand)
	assert.Equal(t, model.PricePublic, records[0].PriceType)
	assert.Equal(t, time.Date(2025, time.January, 15, 10, 30, 0, 0, MarketTime), records[0].SettlementDate)
}

func TestParseInterconnectors(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"D,DISPATCH,INTERCONNECTORRES,3,\"2025/01/15 10:30:00\",1,VIC1-NSW1,20250115061,0,412.3,405.0,0,0,0,0,1600,-1200",
	})

	records, skipped, err := ParseInterconnectors(archive)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "VIC1-NSW1", rec.InterconnectorID)
	assert.Equal(t, 412.3, rec.MeteredMWFlow)
	assert.Equal(t, 405.0, rec.MWFlow)
	assert.Equal(t, 1600.0, rec.ExportLimit)
	assert.Equal(t, -1200.0, rec.ImportLimit)
}
