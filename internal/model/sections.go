package model

import "time"

// SectionKey names one report section. The string value is the section (and sheet) name.
type SectionKey string

const (
	SectionStockInfo                SectionKey = "Stock Info"
	SectionHistory                  SectionKey = "History (1 Month)"
	SectionHistoryMetadata          SectionKey = "History Metadata"
	SectionShares                   SectionKey = "Shares"
	SectionIncomeStatement          SectionKey = "Income Statement"
	SectionQuarterlyIncomeStatement SectionKey = "Quarterly Income Statement"
	SectionBalanceSheet             SectionKey = "Balance Sheet"
	SectionQuarterlyBalanceSheet    SectionKey = "Quarterly Balance Sheet"
	SectionCashFlow                 SectionKey = "Cash Flow"
	SectionQuarterlyCashFlow        SectionKey = "Quarterly Cash Flow"
	SectionMajorHolders             SectionKey = "Major Holders"
	SectionInstitutionalHolders     SectionKey = "Institutional Holders"
	SectionMutualFundHolders        SectionKey = "Mutual Fund Holders"
	SectionInsiderTransactions      SectionKey = "Insider Transactions"
	SectionInsiderPurchases         SectionKey = "Insider Purchases"
	SectionInsiderRoster            SectionKey = "Insider Roster Holders"
	SectionRecommendations          SectionKey = "Recommendations"
	SectionRecommendationsSummary   SectionKey = "Recommendations Summary"
	SectionUpgradesDowngrades       SectionKey = "Upgrades Downgrades"
)

// ReportSections is the assembly order of a full report.
var ReportSections = []SectionKey{
	SectionStockInfo,
	SectionHistory,
	SectionHistoryMetadata,
	SectionShares,
	SectionIncomeStatement,
	SectionQuarterlyIncomeStatement,
	SectionBalanceSheet,
	SectionQuarterlyBalanceSheet,
	SectionCashFlow,
	SectionQuarterlyCashFlow,
	SectionMajorHolders,
	SectionInstitutionalHolders,
	SectionMutualFundHolders,
	SectionInsiderTransactions,
	SectionInsiderPurchases,
	SectionInsiderRoster,
	SectionRecommendations,
	SectionRecommendationsSummary,
	SectionUpgradesDowngrades,
}

// ReportOptions parameterizes section sub-fetches.
type ReportOptions struct {
	History     Timeframe
	SharesStart time.Time
	SharesEnd   time.Time // zero means now
}

// DefaultReportOptions returns one month of daily history and share counts since 2022-01-01.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		History:     HistoryMonth,
		SharesStart: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
