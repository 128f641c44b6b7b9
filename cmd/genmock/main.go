// Command genmock regenerates the mock Quick Stats response fixture used by
// the pipeline tests. Keeping generation in code means the fixture stays in
// sync with the RawRecord field names when the schema struct changes.
//
// Usage:
//
//	go run ./cmd/genmock -out internal/pipeline/testdata/quickstats_corn_2007.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/agridata/quickstats-etl/internal/domain"
)

const bucket = "AREA OPERATED: (2,000 OR MORE ACRES)"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the Quick Stats JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	records := []domain.RawRecord{
		county("001", "ADAMS", "SOUTH CENTRAL", "IRRIGATED", "12,500"),
		county("001", "ADAMS", "SOUTH CENTRAL", "ALL PRODUCTION PRACTICES", "50,000"),
		county("019", "BUFFALO", "SOUTH CENTRAL", "IRRIGATED", "3,300"),
		county("019", "BUFFALO", "SOUTH CENTRAL", "ALL PRODUCTION PRACTICES", "9,900"),
		// Custer's irrigated acreage is withheld; the pair must be dropped.
		county("041", "CUSTER", "CENTRAL", "IRRIGATED", "(D)"),
		county("041", "CUSTER", "CENTRAL", "ALL PRODUCTION PRACTICES", "31,000"),
		// Records that must fail the aggregation and unit filters.
		stateLevel("IRRIGATED", "1,250,000"),
		operations("001", "ADAMS", "SOUTH CENTRAL", "IRRIGATED", "74"),
	}

	envelope := struct {
		Data []domain.RawRecord `json:"data"`
	}{Data: records}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(*out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	log.Printf("wrote %d records: %s", len(records), *out)
	return nil
}

func county(code, name, district, practice, value string) domain.RawRecord {
	return domain.RawRecord{
		AggLevel:       "COUNTY",
		Unit:           "ACRES",
		DomainCategory: bucket,
		Value:          value,
		StateName:      "NEBRASKA",
		StateFIPS:      "31",
		CountyCode:     code,
		CountyName:     name,
		DistrictDesc:   district,
		Year:           "2007",
		ProdnPractice:  practice,
	}
}

func stateLevel(practice, value string) domain.RawRecord {
	rec := county("", "", "", practice, value)
	rec.AggLevel = "STATE"
	return rec
}

func operations(code, name, district, practice, value string) domain.RawRecord {
	rec := county(code, name, district, practice, value)
	rec.Unit = "OPERATIONS"
	return rec
}
