package config

// Declarative layout tables for the raw data sources. Source formatting
// drifts between releases, so row positions and sheet lists live here as
// data rather than inside the extractors.

// SheetLayout holds the 1-indexed header and end rows of one survey sheet.
// Start is the row carrying the merged indicator labels; the year row sits
// directly below it and the data block starts one row further down. End is
// the last data row.
type SheetLayout struct {
	Name  string
	Start int
	End   int
}

// SurveyFile describes one survey-style workbook and its sheets
type SurveyFile struct {
	Key      string
	FilePath string
	Sheets   []SheetLayout
}

// ISORAFiles lists the International Survey on Revenue Administration
// workbooks. Sheet names are matched verbatim against the workbook; two of
// them carry a trailing space in the published files and must keep it.
var ISORAFiles = []SurveyFile{
	{
		Key:      "imf_isora_resources_ict",
		FilePath: "imf isora resources and ICT infrastructure.xlsx",
		Sheets: []SheetLayout{
			{Name: "Tax administration expenditures", Start: 6, End: 172},
			// trailing space error in sheetname
			{Name: "Tax administration staff total ", Start: 7, End: 173},
			{Name: "Operational ICT solutions", Start: 6, End: 172},
		},
	},
	{
		Key:      "imf_isora_staff_metrics",
		FilePath: "imf isora staff metrics.xlsx",
		Sheets: []SheetLayout{
			{Name: "Staff strength levels", Start: 6, End: 172},
			{Name: "Staff academic qualifications", Start: 6, End: 172},
			{Name: "Staff age distribution", Start: 6, End: 172},
			{Name: "Staff length of service", Start: 6, End: 172},
			{Name: "Staff gender distribution", Start: 7, End: 172},
		},
	},
	{
		Key:      "imf_isora_op_metrics_audit",
		FilePath: "imf isora op metrics audit, criminal investigations, dispute resolution.xlsx",
		Sheets: []SheetLayout{
			{Name: "Audit and verification", Start: 6, End: 172},
			{Name: "Value of additional assessments", Start: 6, End: 172},
			{Name: "Value of additional assessm_0", Start: 6, End: 172},
			{Name: "Tax crime investigation", Start: 6, End: 172},
			{Name: "Dispute resolution review proce", Start: 6, End: 172},
		},
	},
	{
		Key:      "imf_isora",
		FilePath: "IMF ISORA.xlsx",
		Sheets: []SheetLayout{
			{Name: "Segmentation ratios LTO or prog", Start: 5, End: 171},
			{Name: "Registration of personal income", Start: 5, End: 171},
			{Name: "Percentage inactive taxpayers o", Start: 5, End: 171},
			{Name: "On-time filing rates by tax typ", Start: 5, End: 171},
			// trailing space error in sheetname
			{Name: "Electronic filing rates by tax ", Start: 5, End: 171},
			{Name: "Proportion of returns by channe", Start: 5, End: 171},
			{Name: "Proportion of returns by ch_0", Start: 5, End: 171},
			{Name: "Proportion of returns by ch_1", Start: 5, End: 171},
		},
	},
}

// WDIIndicatorCodes is the allow-list applied to the World Development
// Indicators dump before reshaping
var WDIIndicatorCodes = []string{
	"FS.AST.DOMS.GD.ZS",
	"FB.BNK.CAPA.ZS",
	"FD.RES.LIQU.AS.ZS",
	"GC.TAX.TOTL.GD.ZS",
	"IQ.CPA.PUBS.XQ",
	"IQ.CPA.PADM.XQ",
	"FX.OWN.TOTL.YG.ZS",
	"FX.OWN.TOTL.OL.ZS",
	"CM.MKT.LCAP.CD",
	"NY.GDP.MKTP.CD",
	"DT.NFL.BOND.CD",
	"BN.RES.INCL.CD",
	"DT.DOD.DSTC.CD",
	"CC.EST",
}

// WGIIndicatorLabels maps the six World Governance Indicators dimensions
// to their published names
var WGIIndicatorLabels = map[string]string{
	"va": "Voice and Accountability",
	"pv": "Political Stability and Absence of Violence/Terrorism",
	"ge": "Government Effectiveness",
	"rq": "Regulatory Quality",
	"rl": "Rule of Law",
	"cc": "Control of Corruption",
}

// GFISheet carries the fixed indicator metadata of one trade-mispricing sheet
type GFISheet struct {
	Name           string
	IndicatorCode  string
	IndicatorLabel string
}

// GFISheets lists the four Global Financial Integrity tables, each holding
// exactly one indicator
var GFISheets = []GFISheet{
	{
		Name:           "Table A",
		IndicatorCode:  "GFI.TableA.gap_usd_adv",
		IndicatorLabel: "The Sums of the Value Gaps Identified in Trade Between 134 Developing Countries and 36 Advanced Economies, 2009–2018, in USD Millions",
	},
	{
		Name:           "Table C",
		IndicatorCode:  "GFI.TableC.gap_pct_adv",
		IndicatorLabel: "The Total Value Gaps Identified Between 134 Developing Countries and 36 Advanced Economies, 2009–2018, as a Percent of Total Trade",
	},
	{
		Name:           "Table E",
		IndicatorCode:  "GFI.TableE.gap_usd_all",
		IndicatorLabel: "The Sums of the Value Gaps Identified in Trade Between 134 Developing Countries and all of their Global Trading Partners, 2009–2018 in USD Millions",
	},
	{
		Name:           "Table G",
		IndicatorCode:  "GFI.TableG.gap_pct_all",
		IndicatorLabel: "The Total Value Gaps Identified in Trade Between 134 Developing Countries and all of their Trading Partners, 2009–2018 as a Percent of Total Trade",
	},
}

// Raw source file names outside the survey workbooks
const (
	PEFAFile     = "WB-PEFA.xlsx"
	TaxGapFile   = "WB_TAX CPACITY AND GAP.csv"
	WDIFile      = "WDI_CSV/WDICSV.csv"
	WGIFile      = "wgidataset.xlsx"
	GFIFile      = "gfi trade mispricing.xlsx"
	USAIDFile    = "USAID tax effort and buyancy.xlsx"
	FSIFile      = "tjn data.csv"
	PricesFile   = "unodc drug prices.xlsx"
	SeizuresFile = "unodc drug seizures.xlsx"
)
