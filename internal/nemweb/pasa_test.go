package nemweb

import (
	"testing"

	"github.com/gridwatch/nemsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePasa_STPASA(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"I,STPASA,REGIONSOLUTION,5,RUN_DATETIME,INTERVAL_DATETIME,REGIONID,DEMAND10,DEMAND50,DEMAND90,RESERVEREQ,CAPACITYREQ,AGGREGATECAPACITYAVAILABLE,AGGREGATEPASAAVAILABILITY,SURPLUSRESERVE,LOWRESERVECONDITION",
		"D,STPASA,REGIONSOLUTION,5,\"2025/01/15 10:00:00\",\"2025/01/16 14:30:00\",NSW1,8100,7600,7100,650,8250,10400,10900,2150,0",
	})

	records, skipped, err := ParsePasa(archive, model.PasaShortTerm)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "NSW", rec.RegionID)
	assert.Equal(t, model.PasaShortTerm, rec.Horizon)
	assert.Equal(t, 8100.0, rec.Demand10)
	assert.Equal(t, 7600.0, rec.Demand50)
	assert.Equal(t, 7100.0, rec.Demand90)
	assert.Equal(t, 650.0, rec.ReserveReq)
	assert.Equal(t, 10400.0, rec.AggCapacity)
	assert.Equal(t, 0, rec.LORCondition)
}

func TestParsePasa_ColumnsResolvedByName(t *testing.T) {
	// Same data with DEMAND columns in a different order: the header row
	// drives resolution, not position.
	archive := zipCSV(t, "x.CSV", []string{
		"I,PDPASA,REGIONSOLUTION,7,RUN_DATETIME,INTERVAL_DATETIME,REGIONID,DEMAND90,DEMAND10,DEMAND50,LOWRESERVECONDITION",
		"D,PDPASA,REGIONSOLUTION,7,\"2025/01/15 10:00:00\",\"2025/01/15 16:30:00\",SA1,1200,1800,1500,2",
	})

	records, skipped, err := ParsePasa(archive, model.PasaPreDispatch)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "SA", rec.RegionID)
	assert.Equal(t, 1800.0, rec.Demand10)
	assert.Equal(t, 1500.0, rec.Demand50)
	assert.Equal(t, 1200.0, rec.Demand90)
	assert.Equal(t, 2, rec.LORCondition)
}

func TestParsePasa_DataBeforeHeaderSkipped(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"D,STPASA,REGIONSOLUTION,5,\"2025/01/15 10:00:00\",\"2025/01/16 14:30:00\",NSW1,8100,7600,7100",
	})

	records, skipped, err := ParsePasa(archive, model.PasaShortTerm)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Empty(t, records)
}
