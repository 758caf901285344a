// Package cameo holds the static code tables shared by filter validation and
// the BigQuery SQL builder: FIPS 10-4 / ISO 3166-1 alpha-3 country mappings
// and the known GKG theme set.
package cameo

import "strings"

// iso3ToFIPS maps ISO 3166-1 alpha-3 codes to FIPS 10-4. GDELT geo columns
// use FIPS; actor affiliation columns use ISO3-style CAMEO codes, so both
// directions are needed.
var iso3ToFIPS = map[string]string{
	"AFG": "AF", "ALB": "AL", "DZA": "AG", "AND": "AN", "AGO": "AO",
	"ATG": "AC", "ARG": "AR", "ARM": "AM", "AUS": "AS", "AUT": "AU",
	"AZE": "AJ", "BHS": "BF", "BHR": "BA", "BGD": "BG", "BRB": "BB",
	"BLR": "BO", "BEL": "BE", "BLZ": "BH", "BEN": "BN", "BTN": "BT",
	"BOL": "BL", "BIH": "BK", "BWA": "BC", "BRA": "BR", "BRN": "BX",
	"BGR": "BU", "BFA": "UV", "MMR": "BM", "BDI": "BY", "KHM": "CB",
	"CMR": "CM", "CAN": "CA", "CPV": "CV", "CAF": "CT", "TCD": "CD",
	"CHL": "CI", "CHN": "CH", "COL": "CO", "COM": "CN", "COD": "CG",
	"COG": "CF", "CRI": "CS", "CIV": "IV", "HRV": "HR", "CUB": "CU",
	"CYP": "CY", "CZE": "EZ", "DNK": "DA", "DJI": "DJ", "DMA": "DO",
	"DOM": "DR", "ECU": "EC", "EGY": "EG", "SLV": "ES", "GNQ": "EK",
	"ERI": "ER", "EST": "EN", "SWZ": "WZ", "ETH": "ET", "FJI": "FJ",
	"FIN": "FI", "FRA": "FR", "GAB": "GB", "GMB": "GA", "GEO": "GG",
	"DEU": "GM", "GHA": "GH", "GRC": "GR", "GRD": "GJ", "GTM": "GT",
	"GIN": "GV", "GNB": "PU", "GUY": "GY", "HTI": "HA", "HND": "HO",
	"HUN": "HU", "ISL": "IC", "IND": "IN", "IDN": "ID", "IRN": "IR",
	"IRQ": "IZ", "IRL": "EI", "ISR": "IS", "ITA": "IT", "JAM": "JM",
	"JPN": "JA", "JOR": "JO", "KAZ": "KZ", "KEN": "KE", "KIR": "KR",
	"PRK": "KN", "KOR": "KS", "KWT": "KU", "KGZ": "KG", "LAO": "LA",
	"LVA": "LG", "LBN": "LE", "LSO": "LT", "LBR": "LI", "LBY": "LY",
	"LIE": "LS", "LTU": "LH", "LUX": "LU", "MDG": "MA", "MWI": "MI",
	"MYS": "MY", "MDV": "MV", "MLI": "ML", "MLT": "MT", "MHL": "RM",
	"MRT": "MR", "MUS": "MP", "MEX": "MX", "FSM": "FM", "MDA": "MD",
	"MCO": "MN", "MNG": "MG", "MNE": "MJ", "MAR": "MO", "MOZ": "MZ",
	"NAM": "WA", "NRU": "NR", "NPL": "NP", "NLD": "NL", "NZL": "NZ",
	"NIC": "NU", "NER": "NG", "NGA": "NI", "MKD": "MK", "NOR": "NO",
	"OMN": "MU", "PAK": "PK", "PLW": "PS", "PAN": "PM", "PNG": "PP",
	"PRY": "PA", "PER": "PE", "PHL": "RP", "POL": "PL", "PRT": "PO",
	"QAT": "QA", "ROU": "RO", "RUS": "RS", "RWA": "RW", "KNA": "SC",
	"LCA": "ST", "VCT": "VC", "WSM": "WS", "SMR": "SM", "STP": "TP",
	"SAU": "SA", "SEN": "SG", "SRB": "RI", "SYC": "SE", "SLE": "SL",
	"SGP": "SN", "SVK": "LO", "SVN": "SI", "SLB": "BP", "SOM": "SO",
	"ZAF": "SF", "SSD": "OD", "ESP": "SP", "LKA": "CE", "SDN": "SU",
	"SUR": "NS", "SWE": "SW", "CHE": "SZ", "SYR": "SY", "TWN": "TW",
	"TJK": "TI", "TZA": "TZ", "THA": "TH", "TLS": "TT", "TGO": "TO",
	"TON": "TN", "TTO": "TD", "TUN": "TS", "TUR": "TU", "TKM": "TX",
	"TUV": "TV", "UGA": "UG", "UKR": "UP", "ARE": "AE", "GBR": "UK",
	"USA": "US", "URY": "UY", "UZB": "UZ", "VUT": "NH", "VEN": "VE",
	"VNM": "VM", "YEM": "YM", "ZMB": "ZA", "ZWE": "ZI",
	"PSE": "WE", "HKG": "HK", "MAC": "MC", "PRI": "RQ", "GRL": "GL",
}

var fipsToISO3 = func() map[string]string {
	m := make(map[string]string, len(iso3ToFIPS))
	for iso, fips := range iso3ToFIPS {
		m[fips] = iso
	}
	return m
}()

// NormalizeCountry accepts a FIPS 10-4 (2-letter) or ISO 3166-1 alpha-3
// (3-letter) code, case-insensitively, and returns the FIPS form.
func NormalizeCountry(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	switch len(c) {
	case 2:
		if _, ok := fipsToISO3[c]; ok {
			return c, true
		}
	case 3:
		if fips, ok := iso3ToFIPS[c]; ok {
			return fips, true
		}
	}
	return "", false
}

// ISO3ForFIPS converts a normalized FIPS code back to its ISO3 form, for
// pushing actor-country predicates into SQL against CAMEO-coded columns.
func ISO3ForFIPS(fips string) (string, bool) {
	iso, ok := fipsToISO3[strings.ToUpper(fips)]
	return iso, ok
}
