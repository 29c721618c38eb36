package nemweb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDispatchSCADA(t *testing.T) {
	archive := zipCSV(t, "PUBLIC_DISPATCHSCADA_202501151030.CSV", []string{
		"C,NEMP.WORLD,DISPATCHSCADA,AEMO,PUBLIC,2025/01/15,10:30:00",
		"I,DISPATCH,UNIT_SCADA,1,SETTLEMENTDATE,DUID,SCADAVALUE,LASTCHANGED",
		"D,DISPATCH,UNIT_SCADA,1,\"2025/01/15 10:30:00\",BASTYAN,82.5,\"2025/01/15 10:30:05\"",
		"D,DISPATCH,UNIT_SCADA,1,\"2025/01/15 10:30:00\",YWPS1,351.2,\"2025/01/15 10:30:05\"",
	})

	records, skipped, err := ParseDispatchSCADA(archive)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, records, 2)

	assert.Equal(t, "BASTYAN", records[0].DUID)
	assert.Equal(t, 82.5, records[0].SCADAValue)
	assert.Equal(t, time.Date(2025, time.January, 15, 10, 30, 0, 0, MarketTime), records[0].SettlementDate)
	assert.Equal(t, "YWPS1", records[1].DUID)
}

func TestParseDispatchSCADA_SkipsMalformed(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		// Short row
		"D,DISPATCH,UNIT_SCADA,1,\"2025/01/15 10:30:00\",BASTYAN",
		// Non-numeric value: skipped, never coerced to zero
		"D,DISPATCH,UNIT_SCADA,1,\"2025/01/15 10:30:00\",BASTYAN,abc,\"x\"",
		// Bad timestamp
		"D,DISPATCH,UNIT_SCADA,1,\"15-01-2025\",BASTYAN,82.5,\"x\"",
		// Empty DUID
		"D,DISPATCH,UNIT_SCADA,1,\"2025/01/15 10:30:00\",,82.5,\"x\"",
		// Different subtype ignored, not counted
		"D,DISPATCH,PRICE,3,\"2025/01/15 10:30:00\",1,NSW1,1,88.0,0",
		// Good row survives
		"D,DISPATCH,UNIT_SCADA,1,\"2025/01/15 10:30:00\",BASTYAN,82.5,\"x\"",
	})

	records, skipped, err := ParseDispatchSCADA(archive)
	require.NoError(t, err)
	assert.Equal(t, 4, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, 82.5, records[0].SCADAValue)
}

func TestParseDispatchSCADA_EmptyPublication(t *testing.T) {
	archive := zipCSV(t, "x.CSV", []string{
		"C,NEMP.WORLD,DISPATCHSCADA,AEMO",
		"I,DISPATCH,UNIT_SCADA,1,SETTLEMENTDATE,DUID,SCADAVALUE",
	})

	records, skipped, err := ParseDispatchSCADA(archive)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Empty(t, records)
}
