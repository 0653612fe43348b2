// Package domain models facility-level air emission records from the EPA
// National Emissions Inventory (NEI) and the aggregations the dashboard
// renders from them.
//
// # Data Source
//
// Records come from a spreadsheet export of the NEI facility inventory,
// e.g. 2020_NEI_LACounty_Facilities.xlsx. Each row is one (facility,
// pollutant) observation. The loader reads the first sheet unless a sheet
// name is configured.
//
// # Column Conventions
//
// Required headers (matched case-insensitively, runs of whitespace collapsed):
//
//	Pollutant          pollutant name, the dataset partition key
//	Pollutant Type     e.g. "CAP", "HAP", "GHG"
//	SITE  NAME         facility name (two spaces in the NEI export;
//	                   "Site Name" and "Facility Name" are accepted)
//	Facility Type      e.g. "Airport", "Petroleum Refinery"
//	State-County       e.g. "CA - Los Angeles"
//	EPA Region         e.g. "9"
//	Latitude           WGS-84 decimal degrees
//	Longitude          WGS-84 decimal degrees
//	Emissions (Tons)   annual emissions in short tons
//
// Numeric cells may carry thousands separators ("1,234.5"), which are
// stripped before parsing. Empty or non-numeric coordinates and emissions
// fail the load with a [LoadError] naming the column and row. Rows where
// every cell is blank are skipped.
//
// # Rounding
//
// Emissions are rounded to 3 decimals once, at load time. Per-coordinate
// sums are rounded to 2 decimals when aggregated. Category sums are left
// unrounded so they add back up to the pollutant total.
//
// # Facility Type Grouping
//
// The categorical summary keeps every facility type whose summed emissions
// reach 10% of the pollutant total (inclusive) and folds the rest into a
// single "Other" slice. "Other" is always present for a non-empty pollutant,
// with value 0 when every facility type is significant. See
// [AggregateByFacilityType].
package domain
