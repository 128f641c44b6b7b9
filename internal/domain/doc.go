// Package domain models USDA NASS Quick Stats agricultural census records.
//
// # Data Source
//
// Records come from the Quick Stats API (https://quickstats.nass.usda.gov),
// the public interface to NASS survey and Census of Agriculture data. Each
// record is a flat object in which every field — counts included — is
// delivered as a string. The pipeline queries county-level harvested acreage
// for one commodity and pivots it into irrigation shares.
//
// # Quick Stats Conventions
//
// Value field:
//
//	Numbers carry thousands separators: "12,345" means 12345.
//	Two redaction sentinels replace numbers that cannot be published:
//	  "(D)"  withheld to avoid disclosing data for individual operations
//	  "(Z)"  less than half the rounding unit (rounds to zero)
//	Records carrying a sentinel are dropped during normalization; any other
//	non-numeric Value aborts the run with [MalformedValueError], because it
//	means the upstream schema changed.
//
// Production practice (prodn_practice_desc):
//
//	Free-text labels such as "IRRIGATED" and "ALL PRODUCTION PRACTICES".
//	[PracticeKey] lower-cases the label and collapses whitespace runs to a
//	single underscore, giving the stable pivot keys "irrigated" and
//	"all_production_practices".
//
// Domain category (domaincat_desc):
//
//	A sub-population filter, e.g. the operation-size bucket
//	"AREA OPERATED: (2,000 OR MORE ACRES)". Only records matching the
//	configured bucket participate in the pivot.
//
// # Region IDs
//
// state_fips_code (2 digits) concatenated with county_code (3 digits) forms
// the standard five-digit county FIPS code, the join key against census
// shapefiles and other spatial data downstream. It is derived here but not
// validated; the consumer owns the join.
//
// # Rounding
//
// percent_irrigated is rounded to one decimal place, half away from zero
// (math.Round): 12.25 -> 12.3, -12.25 -> -12.3. Ties are resolved on the
// binary double, so decimal literals that are not exactly representable
// round by their true binary value.
package domain
