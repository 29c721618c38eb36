package nemweb

import (
	"github.com/gridwatch/nemsync/internal/model"
)

// DISPATCH/UNIT_SCADA positional schema:
//
//	D,DISPATCH,UNIT_SCADA,1,"SETTLEMENTDATE",DUID,SCADAVALUE,"LASTCHANGED"
const (
	scadaMinFields  = 7
	scadaSettlement = 4
	scadaDUID       = 5
	scadaValue      = 6
)

// ParseDispatchSCADA decodes DISPATCH/UNIT_SCADA rows from a report archive.
// Malformed rows are skipped and counted; zero matching rows is a valid
// empty publication, not an error.
func ParseDispatchSCADA(archive []byte) ([]model.DispatchRecord, int, error) {
	lines, err := ExtractLines(archive)
	if err != nil {
		return nil, 0, err
	}

	var records []model.DispatchRecord
	skipped := 0

	for _, line := range lines {
		r := splitRow(line)
		k := r.key()
		if k.class != "D" || k.table != "DISPATCH" || k.subtype != "UNIT_SCADA" {
			continue
		}
		if r.len() < scadaMinFields {
			skipped++
			continue
		}

		ts, err := r.time(scadaSettlement)
		if err != nil {
			skipped++
			continue
		}
		duid := r.str(scadaDUID)
		if duid == "" {
			skipped++
			continue
		}
		value, err := r.float(scadaValue)
		if err != nil {
			skipped++
			continue
		}

		records = append(records, model.DispatchRecord{
			SettlementDate: ts,
			DUID:           duid,
			SCADAValue:     value,
		})
	}

	return records, skipped, nil
}
