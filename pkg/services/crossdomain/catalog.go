package crossdomain

import (
	"github.com/signal-works/pulse/pkg/models/domain"
)

// Inputs keys time-aligned datasets by domain. Evaluators read several at
// once; rows are assumed period-ordered the way single-domain checks keep
// them.
type Inputs map[domain.Domain]domain.Dataset

func (in Inputs) table(d domain.Domain) (domain.Dataset, bool) {
	ds, ok := in[d]
	if !ok || ds.NumRows() == 0 {
		return domain.Dataset{}, false
	}
	return ds, true
}

type evalFunc func(in Inputs, th Thresholds) (domain.FindingStatus, string)

// Rule is one cross-domain heuristic. The catalog is fixed; identifiers,
// titles and severities are baked in rather than loaded from files.
type Rule struct {
	ID       string
	Title    string
	Severity domain.RuleSeverity
	Domains  []domain.Domain
	eval     evalFunc
}

func catalog() []Rule {
	fin := domain.DomainFinance
	mkt := domain.DomainMarketing
	ops := domain.DomainOperations
	ppl := domain.DomainPeople
	tal := domain.DomainTalent

	return []Rule{
		{"CROSS-R-101", "Marketing spend rising while orders and revenue fall", domain.SeverityBlock, []domain.Domain{mkt, ops, fin}, evalSpendOrdersRevenue},
		{"CROSS-R-102", "Attributed revenue exceeds booked revenue", domain.SeverityBlock, []domain.Domain{mkt, fin}, evalAttributionOverclaim},
		{"CROSS-R-103", "Marketing payback period implausible", domain.SeverityBlock, []domain.Domain{mkt, fin}, evalPaybackPlausibility},
		{"CROSS-R-104", "Returns dampen revenue despite order growth", domain.SeverityWarn, []domain.Domain{ops, fin}, evalReturnsDampening},
		{"CROSS-R-105", "Hires and exits do not reconcile with headcount", domain.SeverityWarn, []domain.Domain{ppl, tal}, evalHeadcountReconciliation},
		{"CROSS-R-106", "Runway shrinking while payroll and hiring grow", domain.SeverityBlock, []domain.Domain{fin, tal}, evalRunwayPayrollHiring},
		{"CROSS-R-107", "Spend and headcount up while orders fall", domain.SeverityWarn, []domain.Domain{mkt, tal, ops}, evalEfficiencyParadox},
		{"CROSS-R-108", "Cashflow identity violated", domain.SeverityBlock, []domain.Domain{fin}, evalCashflowIdentity},
		{"CROSS-R-109", "Margin compression under rising spend", domain.SeverityWarn, []domain.Domain{mkt, fin}, evalMarginCompression},
		{"CROSS-R-110", "Attrition climbing alongside operations backlog", domain.SeverityWarn, []domain.Domain{ppl, ops}, evalAttritionBacklog},
		{"CROSS-R-111", "Training investment without defect improvement", domain.SeverityWarn, []domain.Domain{ppl, ops}, evalTrainingDefects},
		{"CROSS-R-112", "Inventory building while operating cashflow falls", domain.SeverityWarn, []domain.Domain{ops, fin}, evalInventoryDrag},
		{"CROSS-R-113", "Revenue per employee falling while payroll grows", domain.SeverityWarn, []domain.Domain{ppl, fin}, evalRevenuePerEmployee},
		{"CROSS-R-114", "Attrition and recruitment spend rising together", domain.SeverityWarn, []domain.Domain{ppl, mkt, tal}, evalAttritionRecruitmentSpend},
		{"CROSS-R-115", "Paid versus organic traffic imbalance", domain.SeverityWarn, []domain.Domain{mkt}, evalPaidOrganicBalance},
		{"CROSS-R-116", "Lead, SQL and order funnel inconsistent", domain.SeverityBlock, []domain.Domain{mkt, ops}, evalFunnelConsistency},
		{"CROSS-R-117", "Revenue forecast misses actuals", domain.SeverityBlock, []domain.Domain{fin}, evalForecastAccuracy},
		{"CROSS-R-118", "Price and volume move together", domain.SeverityWarn, []domain.Domain{fin, ops}, evalPriceElasticity},
		{"CROSS-R-119", "Complaints decouple from backlog", domain.SeverityWarn, []domain.Domain{ops}, evalBacklogComplaints},
		{"CROSS-R-120", "Maintenance spend up without quality gains", domain.SeverityWarn, []domain.Domain{ops}, evalMaintenanceDefects},
		{"CROSS-R-121", "Hiring velocity outpacing revenue per employee", domain.SeverityWarn, []domain.Domain{ppl, fin, tal}, evalHiringVelocity},
		{"CROSS-R-122", "LTV to CAC ratio out of bounds", domain.SeverityBlock, []domain.Domain{mkt, fin}, evalLTVCAC},
		{"CROSS-R-123", "Spend up while lead quality declines", domain.SeverityWarn, []domain.Domain{mkt}, evalSpendLeadQuality},
		{"CROSS-R-124", "Overtime without SLA improvement", domain.SeverityWarn, []domain.Domain{ops}, evalOvertimeSLA},
		{"CROSS-R-125", "Low runway with rising spend and hiring", domain.SeverityBlock, []domain.Domain{fin, mkt, tal}, evalRunwaySpendHiring},
	}
}
