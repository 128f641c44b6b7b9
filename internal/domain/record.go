package domain

import "time"

// Query describes one Quick Stats request. BaseURL and the API key live on
// the client; Query carries only the survey selection.
type Query struct {
	Commodity  string // commodity_desc, e.g. "CORN"
	MinYear    int    // year__GE, inclusive lower bound
	StateAlpha string // optional state_alpha filter, e.g. "NE"
}

// RawRecord is one flat record from the Quick Stats "data" array. The API
// returns every field as text, numeric values included, so all fields are
// strings here and typing happens during normalization.
type RawRecord struct {
	AggLevel       string `json:"agg_level_desc"`
	Unit           string `json:"unit_desc"`
	DomainCategory string `json:"domaincat_desc"`
	Value          string `json:"Value"`
	StateName      string `json:"state_name"`
	StateFIPS      string `json:"state_fips_code"`
	CountyCode     string `json:"county_code"`
	CountyName     string `json:"county_name"`
	DistrictDesc   string `json:"asd_desc"`
	Year           string `json:"year"`
	ProdnPractice  string `json:"prodn_practice_desc"`
}

// CountyIrrigation is one normalized row per (county, year): irrigated and
// total harvested acreage plus the derived share. RegionID is the five-digit
// county FIPS (state + county) used for spatial joins downstream.
type CountyIrrigation struct {
	RegionID         string    `json:"region_id"`
	StateFIPS        string    `json:"state_fips_code"`
	CountyCode       string    `json:"county_code"`
	CountyName       string    `json:"county_name"`
	Year             int       `json:"year"`
	IrrigatedAcres   float64   `json:"irrigated_acres"`
	TotalAcres       float64   `json:"total_acres"`
	PercentIrrigated float64   `json:"percent_irrigated"`
	ProcessedAt      time.Time `json:"processed_at"`
}
