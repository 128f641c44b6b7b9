// Command query runs one fetch-normalize pass against the Quick Stats API and
// writes the normalized county/year rows to stdout, without any sink
// configuration. Useful for eyeballing a survey before wiring the service.
//
// The API key comes from QSETL_NASS_API_KEY.
//
// Usage:
//
//	go run ./cmd/query -commodity CORN -min-year 2007 -state NE -format csv
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/agridata/quickstats-etl/internal/adapter/quickstats"
	"github.com/agridata/quickstats-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	commodity := flag.String("commodity", "CORN", "commodity_desc to query")
	minYear := flag.Int("min-year", 2007, "inclusive lower bound for year")
	state := flag.String("state", "", "optional state_alpha filter, e.g. NE")
	bucket := flag.String("domain-category", "AREA OPERATED: (2,000 OR MORE ACRES)",
		"exact domaincat_desc operation-size bucket to keep")
	format := flag.String("format", "json", "output format: json or csv")
	baseURL := flag.String("base-url", quickstats.DefaultBaseURL, "Quick Stats base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	key := os.Getenv("QSETL_NASS_API_KEY")
	if key == "" {
		return fmt.Errorf("QSETL_NASS_API_KEY is not set")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client, err := quickstats.NewClient(key, *baseURL, *timeout, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	records, err := client.Fetch(ctx, domain.Query{
		Commodity:  *commodity,
		MinYear:    *minYear,
		StateAlpha: *state,
	})
	if err != nil {
		return err
	}

	rows, stats, err := domain.Normalize(records, domain.NormalizeOptions{DomainCategory: *bucket})
	if err != nil {
		return err
	}
	logger.Info("normalized",
		"records", len(records),
		"rows", len(rows),
		"dropped_filtered", stats.Filtered,
		"dropped_redacted", stats.Redacted,
		"dropped_incomplete", stats.IncompletePair,
	)

	switch *format {
	case "json":
		return writeJSON(os.Stdout, rows)
	case "csv":
		return writeCSV(os.Stdout, rows)
	default:
		return fmt.Errorf("unknown format %q (want json or csv)", *format)
	}
}

func writeJSON(w io.Writer, rows []domain.CountyIrrigation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeCSV(w io.Writer, rows []domain.CountyIrrigation) error {
	cw := csv.NewWriter(w)
	header := []string{
		"region_id", "state_fips_code", "county_code", "county_name",
		"year", "irrigated_acres", "total_acres", "percent_irrigated",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.RegionID,
			row.StateFIPS,
			row.CountyCode,
			row.CountyName,
			strconv.Itoa(row.Year),
			strconv.FormatFloat(row.IrrigatedAcres, 'f', -1, 64),
			strconv.FormatFloat(row.TotalAcres, 'f', -1, 64),
			strconv.FormatFloat(row.PercentIrrigated, 'f', 1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
