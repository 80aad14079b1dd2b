// Package domain models EDF power-plant records and their map styling.
//
// # Data Source
//
// Records come from three datasets of the EDF open-data portal
// (https://opendata.edf.fr), served by the Opendatasoft Explore API v2.1:
//
//	centrales-de-production-hydraulique-de-edf-sa                       hydraulic
//	centrales-de-production-nucleaire-edf                               nuclear
//	centrales-de-production-thermique-a-flamme-d-edf-sa-fioul-gaz-charbon thermal
//
// Each `/records` response is a JSON object with a `total_count` integer and
// a `results` array of flat, loosely typed objects. One element describes a
// hydraulic plant, a nuclear reactor or a thermal unit ("tranche").
//
// # Field Conventions
//
// Shared columns:
//
//	centrale                 plant name
//	filiere                  sector ("Hydraulique", "Nucléaire", "Thermique à flamme")
//	puissance_installee      installed capacity in MW (number)
//	region, departement, commune
//
// Family-specific columns:
//
//	hydraulic: categorie_centrale ("Lac", "Fil de l'eau", "Eclusée", ...),
//	           annee_de_mise_en_service (year), point_gps_wsg_84
//	nuclear:   sous_filiere (reactor type, e.g. "REP 900 MW"), combustible,
//	           date_de_mise_en_service_industrielle, point_gps_wsg84
//	thermal:   tranche, sous_filiere, combustible ("Gaz", "Fioul", "Gaz/Fioul"),
//	           date_de_mise_en_service_industrielle, point_gps_wsg84
//
// Note the hydraulic GPS column is spelled `wsg_84` while the others use
// `wsg84`. The GPS value is an object `{"lat": <num>, "lon": <num>}`; any
// other shape is treated as "no coordinates".
//
// Missing columns are common. They are kept as nil fields on [PlantRecord]
// and never replaced by zero values, so a record without coordinates still
// counts in the table but never yields a marker.
//
// # Categories and Colors
//
// Every family groups its records by one category column: categorie_centrale
// for hydraulic, sous_filiere for nuclear and combustible for thermal.
// Colors are assigned by position in the ascending list of distinct
// categories, modulo the palette length (see [AssignColors]). Hydraulic
// categories use a fixed table instead (see [AssignPinnedColors]). Thermal fuels
// containing "/" are mixed fuels (see [IsMixed]) and get their own glyph.
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of
// family|name|unit|lat|lon so exported records can be upserted downstream.
// See [RecordID].
package domain
