package nemweb

import (
	"github.com/gridwatch/nemsync/internal/model"
)

// Positional schemas for the three price publications.
//
// DISPATCH/PRICE:  D,DISPATCH,PRICE,ver,"SETTLEMENTDATE",runno,REGIONID,interval[,INTERVENTION],RRP,...
// The report version shifts RRP: index 8 before version 5, index 9 from
// version 5 on (an INTERVENTION column was inserted at 8).
//
// TRADING/PRICE:   D,TRADING,PRICE,ver,"SETTLEMENTDATE",runno,REGIONID,periodid,RRP,...
//
// DREGION (public): D,DREGION,,ver,"SETTLEMENTDATE",runno,REGIONID,intervention,RRP,...,TOTALDEMAND@13
//
// REGIONSUM rows in dispatch and trading reports carry regional demand:
// D,<table>,REGIONSUM,...,REGIONID@6,...,TOTALDEMAND@9.
const (
	priceSettlement  = 4
	priceVersion     = 3
	priceRegion      = 6
	priceRRPLegacy   = 8
	priceRRPModern   = 9
	tradingRRP       = 8
	publicRRP        = 8
	publicDemand     = 13
	regionsumRegion  = 6
	regionsumDemand  = 9
	publicMinFields  = 14
	tradingMinFields = 9
	dispatchMinFlds  = 10
)

// ParseDispatchPrices decodes DISPATCH/PRICE rows, joining per-region demand
// from DISPATCH/REGIONSUM rows in the same report.
func ParseDispatchPrices(archive []byte) ([]model.PriceRecord, int, error) {
	lines, err := ExtractLines(archive)
	if err != nil {
		return nil, 0, err
	}
	return parsePriceLines(lines, "DISPATCH", model.PriceDispatch)
}

// ParseTradingPrices decodes TRADING/PRICE rows plus TRADING/REGIONSUM demand.
func ParseTradingPrices(archive []byte) ([]model.PriceRecord, int, error) {
	lines, err := ExtractLines(archive)
	if err != nil {
		return nil, 0, err
	}
	return parsePriceLines(lines, "TRADING", model.PriceTrading)
}

// ParsePublicPrices decodes DREGION rows from a daily public-prices archive.
func ParsePublicPrices(archive []byte) ([]model.PriceRecord, int, error) {
	lines, err := ExtractLines(archive)
	if err != nil {
		return nil, 0, err
	}

	var records []model.PriceRecord
	skipped := 0

	for _, line := range lines {
		r := splitRow(line)
		k := r.key()
		if k.class != "D" || k.table != "DREGION" {
			continue
		}
		if r.len() < publicMinFields {
			skipped++
			continue
		}

		ts, err := r.time(priceSettlement)
		if err != nil {
			skipped++
			continue
		}
		rrp, err := r.float(publicRRP)
		if err != nil {
			skipped++
			continue
		}
		demand, err := r.float(publicDemand)
		if err != nil {
			skipped++
			continue
		}

		records = append(records, model.PriceRecord{
			SettlementDate: ts,
			Region:         model.NormalizeRegion(r.str(priceRegion)),
			Price:          rrp,
			TotalDemand:    demand,
			PriceType:      model.PricePublic,
		})
	}

	return records, skipped, nil
}

func parsePriceLines(lines []string, table string, pt model.PriceType) ([]model.PriceRecord, int, error) {
	// First pass: demand by region from REGIONSUM. Current reports carry a
	// single interval, so a region-keyed map is sufficient.
	demand := make(map[string]float64)
	for _, line := range lines {
		r := splitRow(line)
		k := r.key()
		if k.class != "D" || k.table != table || k.subtype != "REGIONSUM" {
			continue
		}
		if r.len() <= regionsumDemand {
			continue
		}
		if d, ok := r.optFloat(regionsumDemand); ok {
			demand[model.NormalizeRegion(r.str(regionsumRegion))] = d
		}
	}

	var records []model.PriceRecord
	skipped := 0

	for _, line := range lines {
		r := splitRow(line)
		k := r.key()
		if k.class != "D" || k.table != table || k.subtype != "PRICE" {
			continue
		}

		minFields := tradingMinFields
		if table == "DISPATCH" {
			minFields = dispatchMinFlds
		}
		if r.len() < minFields {
			skipped++
			continue
		}

		rrpIdx := tradingRRP
		if table == "DISPATCH" {
			version, err := r.int(priceVersion)
			if err != nil {
				skipped++
				continue
			}
			if version >= 5 {
				rrpIdx = priceRRPModern
			} else {
				rrpIdx = priceRRPLegacy
			}
		}

		ts, err := r.time(priceSettlement)
		if err != nil {
			skipped++
			continue
		}
		rrp, err := r.float(rrpIdx)
		if err != nil {
			skipped++
			continue
		}

		region := model.NormalizeRegion(r.str(priceRegion))
		records = append(records, model.PriceRecord{
			SettlementDate: ts,
			Region:         region,
			Price:          rrp,
			TotalDemand:    demand[region],
			PriceType:      pt,
		})
	}

	return records, skipped, nil
}

// DISPATCH/INTERCONNECTORRES positional schema:
//
//	D,DISPATCH,INTERCONNECTORRES,ver,"SETTLEMENTDATE",runno,INTERCONNECTORID,
//	  interval,intervention,METEREDMWFLOW,MWFLOW,...,EXPORTLIMIT@15,IMPORTLIMIT@16
const (
	icMinFields = 17
	icID        = 6
	icMeteredMW = 9
	icMWFlow    = 10
	icExportLim = 15
	icImportLim = 16
)

// ParseInterconnectors decodes DISPATCH/INTERCONNECTORRES rows from a
// dispatch report archive.
func ParseInterconnectors(archive []byte) ([]model.InterconnectorRecord, int, error) {
	lines, err := ExtractLines(archive)
	if err != nil {
		return nil, 0, err
	}

	var records []model.InterconnectorRecord
	skipped := 0

	for _, line := range lines {
		r := splitRow(line)
		k := r.key()
		if k.class != "D" || k.table != "DISPATCH" || k.subtype != "INTERCONNECTORRES" {
			continue
		}
		if r.len() < icMinFields {
			skipped++
			continue
		}

		ts, err := r.time(priceSettlement)
		if err != nil {
			skipped++
			continue
		}
		id := r.str(icID)
		if id == "" {
			skipped++
			continue
		}
		metered, err := r.float(icMeteredMW)
		if err != nil {
			skipped++
			continue
		}
		flow, err := r.float(icMWFlow)
		if err != nil {
			skipped++
			continue
		}

		// Limits are occasionally blank in intervention re-runs; keep the
		// row, the flow is the payload.
		exportLim, _ := r.optFloat(icExportLim)
		importLim, _ := r.optFloat(icImportLim)

		records = append(records, model.InterconnectorRecord{
			SettlementDate:   ts,
			InterconnectorID: id,
			MeteredMWFlow:    metered,
			MWFlow:           flow,
			ExportLimit:      exportLim,
			ImportLimit:      importLim,
		})
	}

	return records, skipped, nil
}
