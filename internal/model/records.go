// Package model defines the typed records the ingestion engine persists and
// the derived views the query side returns.
package model

import "time"

// PriceType identifies the provenance of a price series.
type PriceType string

const (
	// PriceDispatch is the near-real-time 5-minute dispatch price.
	PriceDispatch PriceType = "DISPATCH"
	// PriceTrading is the 30-minute trading interval price.
	PriceTrading PriceType = "TRADING"
	// PricePublic is the archival daily price publication.
	PricePublic PriceType = "PUBLIC"
	// PriceMerged labels rows produced by the merged-price resolver; it is
	// never stored, only returned.
	PriceMerged PriceType = "MERGED"
)

// PasaHorizon distinguishes the two reserve-adequacy forecast products.
type PasaHorizon string

const (
	PasaPreDispatch PasaHorizon = "PD" // ~6 hours ahead
	PasaShortTerm   PasaHorizon = "ST" // ~6 days ahead
)

// DispatchRecord is one generator's metered output for a settlement interval.
// Natural key: (SettlementDate, DUID).
type DispatchRecord struct {
	SettlementDate time.Time `json:"settlementdate"`
	DUID           string    `json:"duid"`
	SCADAValue     float64   `json:"scadavalue"`
}

// PriceRecord is one region's price for a settlement interval.
// Natural key: (SettlementDate, Region, PriceType).
type PriceRecord struct {
	SettlementDate time.Time `json:"settlementdate"`
	Region         string    `json:"region"`
	Price          float64   `json:"price"`
	TotalDemand    float64   `json:"totaldemand"`
	PriceType      PriceType `json:"price_type"`
}

// InterconnectorRecord is one transmission link's signed flow for a
// settlement interval. Natural key: (SettlementDate, InterconnectorID).
type InterconnectorRecord struct {
	SettlementDate   time.Time `json:"settlementdate"`
	InterconnectorID string    `json:"interconnectorid"`
	MeteredMWFlow    float64   `json:"meteredmwflow"`
	MWFlow           float64   `json:"mwflow"`
	ExportLimit      float64   `json:"exportlimit"`
	ImportLimit      float64   `json:"importlimit"`
}

// BidBandRecord is one price/volume bid band a unit offered for a market day.
// Natural key: (SettlementDate, DUID, BidType, BandNo).
type BidBandRecord struct {
	SettlementDate time.Time `json:"settlementdate"`
	DUID           string    `json:"duid"`
	BidType        string    `json:"bidtype"`
	BandNo         int       `json:"bandno"`
	Price          float64   `json:"price"`
	Volume         float64   `json:"volume"`
}

// PasaForecastRecord is one region's reserve-adequacy outlook for a forecast
// interval within a forecast run.
// Natural key: (RunDateTime, IntervalDateTime, RegionID, Horizon).
type PasaForecastRecord struct {
	RunDateTime      time.Time   `json:"run_datetime"`
	IntervalDateTime time.Time   `json:"interval_datetime"`
	RegionID         string      `json:"regionid"`
	Horizon          PasaHorizon `json:"horizon"`
	Demand10         float64     `json:"demand10"`
	Demand50         float64     `json:"demand50"`
	Demand90         float64     `json:"demand90"`
	ReserveReq       float64     `json:"reservereq"`
	CapacityReq      float64     `json:"capacityreq"`
	AggCapacity      float64     `json:"aggregatecapacityavailable"`
	AggAvailability  float64     `json:"aggregatepasaavailability"`
	SurplusReserve   float64     `json:"surplusreserve"`
	LORCondition     int         `json:"lorcondition"`
}

// GeneratorInfo describes a dispatchable unit. Keyed by DUID; lives
// independently of the time-series tables — dispatch rows join to it
// logically by identifier, never by foreign key, so time-series ingestion
// never blocks on missing metadata.
type GeneratorInfo struct {
	DUID           string  `csv:"duid" json:"duid"`
	StationName    string  `csv:"station_name" json:"station_name"`
	Region         string  `csv:"region" json:"region"`
	FuelSource     string  `csv:"fuel_source" json:"fuel_source"`
	TechnologyType string  `csv:"technology_type" json:"technology_type"`
	CapacityMW     float64 `csv:"capacity_mw" json:"capacity_mw"`
}

// Coverage reports the stored time span of one table.
type Coverage struct {
	Table        string     `json:"table"`
	Earliest     *time.Time `json:"earliest,omitempty"`
	Latest       *time.Time `json:"latest,omitempty"`
	TotalRecords int64      `json:"total_records"`
	DaysWithData int        `json:"days_with_data"`
}
