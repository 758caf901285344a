package cameo

import "strings"

// knownThemes is the static GKG theme vocabulary used when code validation is
// enabled. The live vocabulary is far larger (notably the WB_ and TAX_
// namespaces are generated); those namespaces are accepted by prefix instead
// of enumeration.
var knownThemes = map[string]struct{}{
	"AFFECT": {}, "AGRICULTURE": {}, "ALLIANCE": {}, "APPOINTMENT": {},
	"ARMEDCONFLICT": {}, "ARREST": {}, "ASSASSINATION": {}, "AUSTERITY": {},
	"AVIATION_INCIDENT": {}, "BLACK_MARKET": {}, "BLOCKADE": {}, "BORDER": {},
	"BULLYING": {}, "CEASEFIRE": {}, "CHARASMATIC_LEADERSHIP": {},
	"CLAIM_CREDIT": {}, "CONSTITUTIONAL": {}, "CORRUPTION": {}, "CRIME_ILLEGAL_DRUGS": {},
	"CRIME_COMMON_ROBBERY": {}, "CYBER_ATTACK": {}, "DEATH_PENALTY": {},
	"DEFECTION": {}, "DELAY": {}, "DEMOCRACY": {}, "DISABILITY": {},
	"DISCRIMINATION": {}, "DISPLACED": {}, "DRONE": {}, "DROUGHT": {},
	"ECON_BANKRUPTCY": {}, "ECON_BOYCOTT": {}, "ECON_COST_OF_LIVING": {},
	"ECON_CURRENCY_EXCHANGE_RATE": {}, "ECON_CURRENCY_RESERVES": {},
	"ECON_DEBT": {}, "ECON_DEREGULATION": {}, "ECON_EARNINGSREPORT": {},
	"ECON_ENTREPRENEURSHIP": {}, "ECON_FOREIGNINVEST": {}, "ECON_FREETRADE": {},
	"ECON_HOUSING_PRICES": {}, "ECON_INFORMAL_ECONOMY": {}, "ECON_INTEREST_RATES": {},
	"ECON_IPO": {}, "ECON_MONOPOLY": {}, "ECON_MOU": {}, "ECON_NATIONALIZE": {},
	"ECON_PRICECONTROL": {}, "ECON_REMITTANCE": {}, "ECON_STOCKMARKET": {},
	"ECON_SUBSIDIES": {}, "ECON_TAXATION": {}, "ECON_TRADE_DISPUTE": {},
	"ECON_UNIONS": {}, "EDUCATION": {}, "ELECTION": {}, "ELECTION_FRAUD": {},
	"ENV_BIOFUEL": {}, "ENV_CARBONCAPTURE": {}, "ENV_CLIMATECHANGE": {},
	"ENV_COAL": {}, "ENV_DEFORESTATION": {}, "ENV_FISHERY": {},
	"ENV_FORESTRY": {}, "ENV_GEOTHERMAL": {}, "ENV_GREEN": {},
	"ENV_HYDRO": {}, "ENV_METALS": {}, "ENV_MINING": {}, "ENV_NATURALGAS": {},
	"ENV_NUCLEARPOWER": {}, "ENV_OIL": {}, "ENV_OVERFISH": {},
	"ENV_POACHING": {}, "ENV_SOLAR": {}, "ENV_SPECIESENDANGERED": {},
	"ENV_SPECIESEXTINCT": {}, "ENV_WATERWAYS": {}, "ENV_WINDPOWER": {},
	"ETH_INDIGINOUS": {}, "EVACUATION": {}, "EXHUMATION": {}, "EXILE": {},
	"EXTREMISM": {}, "FIREARM_OWNERSHIP": {}, "FOOD_SECURITY": {},
	"FOOD_STAPLE": {}, "FREESPEECH": {}, "FUELPRICES": {}, "GENDER_VIOLENCE": {},
	"GENERAL_GOVERNMENT": {}, "GENERAL_HEALTH": {}, "GENOCIDE": {},
	"GRIEVANCES": {}, "HARASSMENT": {}, "HATE_SPEECH": {},
	"HEALTH_PANDEMIC": {}, "HEALTH_SEXTRANSDISEASE": {}, "HEALTH_VACCINATION": {},
	"HUMAN_RIGHTS": {}, "HUMAN_RIGHTS_ABUSES_FORCED_LABOR": {},
	"HUMAN_TRAFFICKING": {}, "IMMIGRATION": {}, "IMPEACHMENT": {},
	"INFO_HOAX": {}, "INFO_RUMOR": {}, "INFRASTRUCTURE_BAD_ROADS": {},
	"INSURGENCY": {}, "INTERNET_BLACKOUT": {}, "INTERNET_CENSORSHIP": {},
	"JIHAD": {}, "KIDNAP": {}, "KILL": {}, "LANDMINE": {}, "LEADER": {},
	"LEGALIZE": {}, "LEGISLATION": {}, "LGBT": {}, "LITERACY": {},
	"LOCUSTS": {}, "MANMADE_DISASTER": {}, "MARITIME_INCIDENT": {},
	"MEDIA_CENSORSHIP": {}, "MEDIA_MSM": {}, "MEDIA_SOCIAL": {},
	"MEDICAL": {}, "MEDICAL_SECURITY": {}, "MIL_SELF_IDENTIFIED_ARMS_DEAL": {},
	"MIL_WEAPONS_PROLIFERATION": {}, "MILITARY": {}, "MILITARY_COOPERATION": {},
	"MOVEMENT_ENVIRONMENTAL": {}, "MOVEMENT_GENERAL": {}, "MOVEMENT_OTHER": {},
	"MOVEMENT_SOCIAL": {}, "MOVEMENT_WOMENS": {}, "NATURAL_DISASTER": {},
	"NEGOTIATIONS": {}, "NEW_CONSTRUCTION": {}, "ORGANIZED_CRIME": {},
	"PEACEKEEPING": {}, "PERSECUTION": {}, "PHONE_OUTAGE": {},
	"PIPELINE_INCIDENT": {}, "PIRACY": {}, "POL_HOSTVISIT": {},
	"POLITICAL_PRISONER": {}, "POLITICAL_TURMOIL": {}, "POPULATION_DENSITY": {},
	"POVERTY": {}, "POWER_OUTAGE": {}, "PRIVATIZATION": {},
	"PROPAGANDA": {}, "PROPERTY_RIGHTS": {}, "PROTEST": {},
	"PUBLIC_TRANSPORT": {}, "RAIL_INCIDENT": {}, "RAPE": {},
	"RATIFY": {}, "REBELLION": {}, "REBELS": {}, "RECRUITMENT": {},
	"REFUGEES": {}, "RELATIONS": {}, "RELEASE_HOSTAGE": {},
	"RELEASE_PRISON": {}, "RELIGION": {}, "RESIGNATION": {},
	"RETALIATE": {}, "RETIREMENT": {}, "ROAD_INCIDENT": {},
	"RURAL": {}, "SANCTIONS": {}, "SANITATION": {}, "SCANDAL": {},
	"SCIENCE": {}, "SECURITY_SERVICES": {}, "SEIGE": {}, "SEIZE": {},
	"SELF_IDENTIFIED_ATROCITY": {}, "SELF_IDENTIFIED_ENVIRON_DISASTER": {},
	"SELF_IDENTIFIED_HUMAN_RIGHTS": {}, "SELF_IDENTIFIED_HUMANITARIAN_CRISIS": {},
	"SEPARATISTS": {}, "SHORTAGE": {}, "SICKENED": {}, "SLFID_CAPACITY_BUILDING": {},
	"SLFID_CIVIL_LIBERTIES": {}, "SLFID_ECONOMIC_DEVELOPMENT": {},
	"SLFID_ECONOMIC_POWER": {}, "SLFID_MILITARY_BUILDUP": {},
	"SLFID_MILITARY_READINESS": {}, "SLFID_MILITARY_SPENDING": {},
	"SLFID_MINERAL_RESOURCES": {}, "SLFID_NATURAL_RESOURCES": {},
	"SLFID_PEACE_BUILDING": {}, "SLFID_POLITICAL_BOUNDARIES": {},
	"SLFID_RULE_OF_LAW": {}, "SLUMS": {}, "SMUGGLING": {},
	"SOC_DIPLOMCOOP": {}, "SOC_ECONCOOP": {}, "SOC_EXPRESSREGRET": {},
	"SOC_EXPRESSSUPPORT": {}, "SOC_FORCEDRELOCATION": {},
	"SOC_GENERALCRIME": {}, "SOC_INTELSHARING": {}, "SOC_JUDICIALCOOP": {},
	"SOC_MASSMIGRATION": {}, "SOC_PARDON": {}, "SOC_POINTSOFLIGHT": {},
	"SOC_SUICIDE": {}, "SOC_SUSPICIOUSACTIVITIES": {}, "SOC_SUSPICIOUSPEOPLE": {},
	"SOC_TRAFFICACCIDENT": {}, "SOVEREIGNTY": {}, "STATE_OF_EMERGENCY": {},
	"STRIKE": {}, "SURVEILLANCE": {}, "TERROR": {}, "TORTURE": {},
	"TOURISM": {}, "TRANSPARENCY": {}, "TREASON": {}, "TRIAL": {},
	"UNEMPLOYMENT": {}, "UNGOVERNED": {}, "UNREST_CHECKPOINT": {},
	"UNREST_CLOSINGBORDER": {}, "UNREST_CURFEW": {}, "UNREST_HUNGERSTRIKE": {},
	"UNREST_MOLOTOVCOCKTAIL": {}, "UNREST_POLICEBRUTALITY": {},
	"UNREST_RIOT": {}, "UNREST_SELFIMMOLATION": {}, "UNREST_STONETHROWING": {},
	"UNREST_STONING": {}, "UNSAFE_WORK_ENVIRONMENT": {}, "URBAN": {},
	"URBAN_SPRAWL": {}, "VANDALIZE": {}, "VETO": {}, "VIOLENT_UNREST": {},
	"WATER_SECURITY": {}, "WHISTLEBLOWER": {}, "WMD": {}, "WOUND": {},
}

// generatedPrefixes are theme namespaces whose members are machine-generated
// and too numerous to enumerate; membership is accepted by prefix.
var generatedPrefixes = []string{
	"TAX_", "WB_", "CRISISLEX_", "USPEC_", "EPU_",
}

// KnownTheme reports whether name is an accepted GKG theme, case-insensitively.
func KnownTheme(name string) bool {
	t := strings.ToUpper(strings.TrimSpace(name))
	if _, ok := knownThemes[t]; ok {
		return true
	}
	for _, p := range generatedPrefixes {
		if strings.HasPrefix(t, p) && len(t) > len(p) {
			return true
		}
	}
	return false
}
