package nemweb

import (
	"github.com/gridwatch/nemsync/internal/model"
)

// PASA reports are header-driven: the I row names the columns and AEMO has
// reordered them between report versions, so REGIONSOLUTION fields are
// resolved by name rather than position.
func ParsePasa(archive []byte, horizon model.PasaHorizon) ([]model.PasaForecastRecord, int, error) {
	lines, err := ExtractLines(archive)
	if err != nil {
		return nil, 0, err
	}

	table := string(horizon) + "PASA"

	var header map[string]int
	var records []model.PasaForecastRecord
	skipped := 0

	for _, line := range lines {
		r := splitRow(line)
		k := r.key()
		if k.table != table || k.subtype != "REGIONSOLUTION" {
			continue
		}
		switch k.class {
		case "I":
			header = headerIndex(r)
			continue
		case "D":
		default:
			continue
		}
		if header == nil {
			skipped++
			continue
		}

		runDT, err := r.namedTime(header, "RUN_DATETIME")
		if err != nil {
			skipped++
			continue
		}
		intervalDT, err := r.namedTime(header, "INTERVAL_DATETIME")
		if err != nil {
			skipped++
			continue
		}
		region := model.NormalizeRegion(r.named(header, "REGIONID"))
		if region == "" {
			skipped++
			continue
		}

		d10, err10 := r.namedFloat(header, "DEMAND10")
		d50, err50 := r.namedFloat(header, "DEMAND50")
		d90, err90 := r.namedFloat(header, "DEMAND90")
		if err10 != nil || err50 != nil || err90 != nil {
			skipped++
			continue
		}

		rec := model.PasaForecastRecord{
			RunDateTime:      runDT,
			IntervalDateTime: intervalDT,
			RegionID:         region,
			Horizon:          horizon,
			Demand10:         d10,
			Demand50:         d50,
			Demand90:         d90,
		}
		if lor, ok := r.namedOptFloat(header, "LOWRESERVECONDITION"); ok {
			rec.LORCondition = int(lor)
		}
		if v, ok := r.namedOptFloat(header, "RESERVEREQ"); ok {
			rec.ReserveReq = v
		}
		if v, ok := r.namedOptFloat(header, "CAPACITYREQ"); ok {
			rec.CapacityReq = v
		}
		if v, ok := r.namedOptFloat(header, "AGGREGATECAPACITYAVAILABLE"); ok {
			rec.AggCapacity = v
		}
		if v, ok := r.namedOptFloat(header, "AGGREGATEPASAAVAILABILITY"); ok {
			rec.AggAvailability = v
		}
		if v, ok := r.namedOptFloat(header, "SURPLUSRESERVE"); ok {
			rec.SurplusReserve = v
		}

		records = append(records, rec)
	}

	return records, skipped, nil
}
