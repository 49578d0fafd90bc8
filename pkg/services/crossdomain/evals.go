package crossdomain

import (
	"fmt"
	"math"

	"github.com/signal-works/pulse/pkg/models/domain"
)

func na(msg string) (domain.FindingStatus, string)   { return domain.FindingNA, msg }
func pass(msg string) (domain.FindingStatus, string) { return domain.FindingPass, msg }
func warn(msg string) (domain.FindingStatus, string) { return domain.FindingWarn, msg }
func fail(msg string) (domain.FindingStatus, string) { return domain.FindingFail, msg }

func evalSpendOrdersRevenue(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok1 := in.table(domain.DomainMarketing)
	ops, ok2 := in.table(domain.DomainOperations)
	fin, ok3 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 || !ok3 {
		return na("requires marketing, operations and finance data")
	}
	spend := findColumn(mkt, "marketing_spend", "ad_spend", "total_spend", "spend")
	orders := findColumn(ops, "orders", "total_orders", "completed_orders", "shipments")
	revenue := findColumn(fin, "revenue", "sales", "booked_revenue", "turnover")
	if spend == "" || orders == "" || revenue == "" {
		return na("columns not found (spend/orders/revenue)")
	}

	sUp, _ := growth(floats(mkt, spend), th.GrowthUp, th.GrowthDown)
	_, oDown := growth(floats(ops, orders), th.GrowthUp, th.GrowthDown)
	_, rDown := growth(floats(fin, revenue), th.GrowthUp, th.GrowthDown)
	bad := coincident(sUp, oDown, rDown)

	n := mkt.NumRows()
	if ops.NumRows() > n {
		n = ops.NumRows()
	}
	if fin.NumRows() > n {
		n = fin.NumRows()
	}
	switch {
	case bad >= th.adverseFloor(n, th.AdverseShare):
		return fail(fmt.Sprintf("%d adverse funnel periods", bad))
	case bad > 0:
		return warn(fmt.Sprintf("%d adverse funnel periods", bad))
	}
	return pass("no adverse funnel pattern")
}

func evalAttributionOverclaim(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok1 := in.table(domain.DomainMarketing)
	fin, ok2 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 {
		return na("requires marketing and finance data")
	}
	attr := findColumn(mkt, "attributed_revenue", "platform_revenue", "mkt_attributed_revenue")
	rev := findColumn(fin, "revenue", "sales", "booked_revenue", "turnover")
	if attr == "" || rev == "" {
		return na("columns not found (attributed_revenue/revenue)")
	}

	a, aok := sumValid(floats(mkt, attr))
	r, rok := sumValid(floats(fin, rev))
	if !aok || !rok {
		return na("insufficient numeric data")
	}
	switch {
	case a > r*th.AttributionFailFactor:
		return fail(fmt.Sprintf("attributed %.0f exceeds booked revenue %.0f", a, r))
	case a > r*th.AttributionWarnFactor:
		return warn(fmt.Sprintf("attributed revenue nearly equals booked (%.0f vs %.0f)", a, r))
	}
	return pass("attributed revenue within booked revenue")
}

func evalPaybackPlausibility(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok1 := in.table(domain.DomainMarketing)
	fin, ok2 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 {
		return na("requires marketing and finance data")
	}
	spendCol := findColumn(mkt, "marketing_spend", "ad_spend", "total_spend", "spend")
	attrCol := findColumn(mkt, "attributed_revenue", "platform_revenue", "mkt_attributed_revenue")
	if spendCol == "" || attrCol == "" {
		return na("columns not found (spend/attributed_revenue)")
	}

	spend := fillNaN(floats(mkt, spendCol), 0)
	attr := fillNaN(floats(mkt, attrCol), 0)

	// Gross profit proxy: attributed revenue scaled by the finance margin
	// when one is reported, 40% otherwise.
	gain := make([]float64, len(attr))
	if gmCol := findColumn(fin, "gross_margin_pct", "gross_margin_percent", "gm_pct"); gmCol != "" {
		gm := fillNaN(floats(fin, gmCol), 0.4)
		gmMean := meanValid(gm)
		for i := range gain {
			factor := gmMean
			if i < len(gm) {
				factor = gm[i]
			}
			gain[i] = attr[i] * factor
		}
	} else {
		copy(gain, attr)
	}

	tooLow, tooHigh := 0, 0
	for i := range gain {
		payback := math.Inf(1)
		if gain[i] != 0 && !math.IsNaN(gain[i]) {
			payback = spend[i] / gain[i]
		}
		switch {
		case payback < th.PaybackMin:
			tooLow++
		case payback > th.PaybackMax:
			tooHigh++
		}
	}

	total := tooLow + tooHigh
	switch {
	case total >= th.adverseFloor(len(gain), th.AdverseShare):
		return fail(fmt.Sprintf("unrealistic payback in %d periods", total))
	case total > 0:
		return warn(fmt.Sprintf("%d very-low and %d very-high payback periods", tooLow, tooHigh))
	}
	return pass("payback looks realistic")
}

func evalReturnsDampening(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ops, ok1 := in.table(domain.DomainOperations)
	fin, ok2 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 {
		return na("requires operations and finance data")
	}
	orders := findColumn(ops, "orders", "total_orders", "completed_orders", "shipments")
	returns := findColumn(ops, "returns", "refunds", "returned_orders")
	revenue := findColumn(fin, "revenue", "sales", "booked_revenue", "turnover")
	if orders == "" || returns == "" || revenue == "" {
		return na("columns not found (orders/returns/revenue)")
	}

	oUp, _ := growth(floats(ops, orders), th.GrowthUp, th.GrowthDown)
	rUp, _ := growth(floats(ops, returns), th.GrowthUp, th.GrowthDown)
	_, revDown := growth(floats(fin, revenue), th.GrowthUp, th.GrowthDown)
	if bad := coincident(oUp, rUp, revDown); bad >= 2 {
		return warn(fmt.Sprintf("%d periods where returns dampened revenue despite order growth", bad))
	}
	return pass("no strong returns-dampening pattern")
}

func evalHeadcountReconciliation(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ppl, ok1 := in.table(domain.DomainPeople)
	tal, ok2 := in.table(domain.DomainTalent)
	if !ok1 || !ok2 {
		return na("requires people and talent data")
	}
	head := findColumn(ppl, "headcount", "total_headcount", "employees")
	hires := findColumn(tal, "new_hires", "hiring", "offers_accepted", "joined")
	exits := findColumn(ppl, "attrition", "exits", "separations", "leavers")
	if head == "" || hires == "" || exits == "" {
		return na("columns not found (headcount/hires/exits)")
	}

	hc := fillNaN(ffill(floats(ppl, head)), 0)
	joined := padTo(floats(tal, hires), len(hc))
	left := padTo(floats(ppl, exits), len(hc))

	mean := meanValid(hc)
	tol := 1.0
	if mean != 0 && th.HeadcountTolShare*mean > tol {
		tol = th.HeadcountTolShare * mean
	}

	off := 0
	for i := range hc {
		delta := 0.0
		if i > 0 {
			delta = hc[i] - hc[i-1]
		}
		if err := math.Abs((joined[i] - left[i]) - delta); err > tol {
			off++
		}
	}
	if off >= 2 {
		return warn(fmt.Sprintf("%d periods where hires minus exits misses the headcount change", off))
	}
	return pass("hires minus exits aligns with net headcount change")
}

func evalRunwayPayrollHiring(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	fin, ok1 := in.table(domain.DomainFinance)
	tal, ok2 := in.table(domain.DomainTalent)
	if !ok1 || !ok2 {
		return na("requires finance and talent data")
	}
	runway := findColumn(fin, "runway_months", "months_of_runway", "cash_runway_months")
	payroll := findColumn(fin, "payroll_cost", "total_payroll", "sga_payroll")
	hires := findColumn(tal, "new_hires", "hiring", "offers_accepted", "joined")
	if runway == "" || payroll == "" || hires == "" {
		return na("columns not found (runway/payroll/hires)")
	}

	_, rDown := growth(fillNaN(floats(fin, runway), 0), 0.05, -0.02)
	pUp, _ := growth(fillNaN(floats(fin, payroll), 0), th.GrowthUp, th.GrowthDown)
	hUp, _ := growth(fillNaN(floats(tal, hires), 0), th.GrowthUp, th.GrowthDown)
	bad := coincident(rDown, pUp, hUp)
	switch {
	case bad >= 2:
		return fail("runway falling while payroll and hiring rise")
	case bad > 0:
		return warn("runway pressure with payroll and hiring up")
	}
	return pass("runway versus payroll and hiring looks fine")
}

func evalEfficiencyParadox(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok1 := in.table(domain.DomainMarketing)
	tal, ok2 := in.table(domain.DomainTalent)
	ops, ok3 := in.table(domain.DomainOperations)
	if !ok1 || !ok2 || !ok3 {
		return na("requires marketing, talent and operations data")
	}
	spend := findColumn(mkt, "marketing_spend", "ad_spend", "total_spend", "spend")
	hc := findColumn(tal, "headcount", "total_headcount", "employees")
	orders := findColumn(ops, "orders", "total_orders", "completed_orders", "shipments")
	if spend == "" || hc == "" || orders == "" {
		return na("columns not found (spend/headcount/orders)")
	}

	sUp, _ := growth(floats(mkt, spend), th.GrowthUp, th.GrowthDown)
	hUp, _ := growth(floats(tal, hc), th.GrowthUp, th.GrowthDown)
	_, oDown := growth(floats(ops, orders), th.GrowthUp, th.GrowthDown)
	if bad := coincident(sUp, hUp, oDown); bad >= 2 {
		return warn(fmt.Sprintf("%d periods show spend and headcount up while orders fall", bad))
	}
	return pass("no persistent efficiency paradox")
}

func evalCashflowIdentity(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	fin, ok := in.table(domain.DomainFinance)
	if !ok {
		return na("requires finance data")
	}
	op := findColumn(fin, "operating_cashflow", "operating_cash_flow", "cashflow_operating")
	inv := findColumn(fin, "investing_cashflow", "investing_cash_flow", "cashflow_investing")
	fn := findColumn(fin, "financing_cashflow", "financing_cash_flow", "cashflow_financing")
	net := findColumn(fin, "net_change_in_cash", "net_change_cash", "net_cash_change")
	if op == "" || inv == "" || fn == "" || net == "" {
		return na("required columns not found (operating, investing, financing, net)")
	}

	co := fillNaN(floats(fin, op), 0)
	ci := fillNaN(floats(fin, inv), 0)
	cf := fillNaN(floats(fin, fn), 0)
	cn := fillNaN(floats(fin, net), 0)

	bad := 0
	for i := range cn {
		delta := (co[i] + ci[i] + cf[i]) - cn[i]
		tol := math.Abs(cn[i]) * th.CashflowTolShare
		if tol < 1.0 {
			tol = 1.0
		}
		if math.Abs(delta) > tol {
			bad++
		}
	}

	floor := int(math.Ceil(th.CashflowFailShare * float64(len(cn))))
	if floor < 1 {
		floor = 1
	}
	switch {
	case bad >= floor:
		return fail(fmt.Sprintf("%d periods violate the cashflow identity", bad))
	case bad > 0:
		return warn(fmt.Sprintf("%d borderline periods", bad))
	}
	return pass("cashflow identity holds")
}

func evalMarginCompression(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok1 := in.table(domain.DomainMarketing)
	fin, ok2 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 {
		return na("requires marketing and finance data")
	}
	spend := findColumn(mkt, "marketing_spend", "ad_spend", "total_spend", "spend")
	gm := findColumn(fin, "gross_margin_pct", "gross_margin_percent", "gm_pct")
	if spend == "" || gm == "" {
		return na("columns not found (spend/gross_margin_pct)")
	}

	sUp, _ := growth(floats(mkt, spend), 0.05, th.GrowthDown)
	_, gmDown := growth(floats(fin, gm), th.GrowthUp, -0.01)
	if bad := coincident(sUp, gmDown); bad >= 2 {
		return warn(fmt.Sprintf("%d periods of margin compression with rising spend", bad))
	}
	return pass("no persistent margin compression from spend")
}

func evalAttritionBacklog(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ppl, ok1 := in.table(domain.DomainPeople)
	ops, ok2 := in.table(domain.DomainOperations)
	if !ok1 || !ok2 {
		return na("requires people and operations data")
	}
	attr := findColumn(ppl, "attrition_rate", "attrition", "exits_rate")
	backlog := findColumn(ops, "backlog", "order_backlog", "pending_orders", "open_orders")
	if attr == "" || backlog == "" {
		return na("columns not found (attrition/backlog)")
	}

	aUp, _ := growth(floats(ppl, attr), 0.02, th.GrowthDown)
	bUp, _ := growth(floats(ops, backlog), 0.05, th.GrowthDown)
	if bad := coincident(aUp, bUp); bad >= 2 {
		return warn(fmt.Sprintf("%d periods where attrition likely drives backlog", bad))
	}
	return pass("attrition and backlog not strongly linked")
}

func evalTrainingDefects(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ppl, ok1 := in.table(domain.DomainPeople)
	ops, ok2 := in.table(domain.DomainOperations)
	if !ok1 || !ok2 {
		return na("requires people and operations data")
	}
	training := findColumn(ppl, "training_hours", "training_hours_per_emp", "lnd_hours")
	defects := findColumn(ops, "defect_rate", "defects", "quality_defect_rate")
	if training == "" || defects == "" {
		return na("columns not found (training/defects)")
	}

	tUp, _ := growth(floats(ppl, training), 0.05, th.GrowthDown)
	dUp, _ := growth(floats(ops, defects), 0.01, th.GrowthDown)
	if notHelping := coincident(tUp, dUp); notHelping >= 2 {
		return warn(fmt.Sprintf("%d periods with training up but defects up", notHelping))
	}
	return pass("training effect on defects acceptable")
}

func evalInventoryDrag(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ops, ok1 := in.table(domain.DomainOperations)
	fin, ok2 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 {
		return na("requires operations and finance data")
	}
	inv := findColumn(ops, "inventory", "inventory_value", "stock_value", "inventory_level")
	op := findColumn(fin, "operating_cashflow", "operating_cash_flow", "cashflow_operating")
	if inv == "" || op == "" {
		return na("columns not found (inventory/operating_cashflow)")
	}

	invUp, _ := growth(floats(ops, inv), 0.05, th.GrowthDown)
	_, opDown := growth(floats(fin, op), th.GrowthUp, -0.05)
	if bad := coincident(invUp, opDown); bad >= 2 {
		return warn(fmt.Sprintf("%d periods show inventory rising while operating cashflow falls", bad))
	}
	return pass("no sustained inventory drag")
}

func evalRevenuePerEmployee(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ppl, ok1 := in.table(domain.DomainPeople)
	fin, ok2 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 {
		return na("requires people and finance data")
	}
	head := findColumn(ppl, "headcount", "total_headcount", "employees")
	payroll := findColumn(fin, "payroll_cost", "total_payroll", "sga_payroll")
	revenue := findColumn(fin, "revenue", "sales", "booked_revenue", "turnover")
	if head == "" || payroll == "" || revenue == "" {
		return na("columns not found (headcount/payroll/revenue)")
	}

	hc := ffill(zeroToNaN(floats(ppl, head)))
	rpe := perHead(fillNaN(floats(fin, revenue), 0), hc)
	rpeDown := countBelow(pctChange(rpe), -0.15)
	payUp := countAbove(pctChange(floats(fin, payroll)), 0.10)
	if rpeDown >= 2 && payUp >= 2 {
		return warn("revenue per employee falling while payroll grows")
	}
	return pass("headcount, payroll and revenue broadly aligned")
}

func evalAttritionRecruitmentSpend(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ppl, ok1 := in.table(domain.DomainPeople)
	mkt, ok2 := in.table(domain.DomainMarketing)
	if !ok1 || !ok2 {
		return na("requires people and marketing data")
	}
	attr := findColumn(ppl, "attrition_rate", "attrition", "exits_rate")

	recDs := mkt
	rec := findColumn(mkt, "recruitment_spend", "talent_spend", "hr_marketing_spend", "hiring_spend")
	if rec == "" {
		if tal, ok := in.table(domain.DomainTalent); ok {
			if c := findColumn(tal, "recruitment_spend", "talent_spend", "hiring_spend"); c != "" {
				rec, recDs = c, tal
			}
		}
	}
	if attr == "" || rec == "" {
		return na("columns not found (attrition/recruitment_spend)")
	}

	aUp, _ := growth(floats(ppl, attr), 0.02, th.GrowthDown)
	rUp, _ := growth(floats(recDs, rec), 0.10, th.GrowthDown)
	if bad := coincident(aUp, rUp); bad >= 2 {
		return warn(fmt.Sprintf("%d periods with attrition and recruitment spend rising together", bad))
	}
	return pass("attrition versus recruitment spend acceptable")
}

func evalPaidOrganicBalance(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok := in.table(domain.DomainMarketing)
	if !ok {
		return na("requires marketing data")
	}
	paid := findColumn(mkt, "paid_traffic", "paid_sessions", "ads_clicks")
	organic := findColumn(mkt, "organic_traffic", "organic_sessions", "seo_sessions")
	if paid == "" || organic == "" {
		return na("columns not found (paid/organic)")
	}

	p := zeroToNaN(floats(mkt, paid))
	o := zeroToNaN(floats(mkt, organic))
	ratio := make([]float64, len(p))
	for i := range ratio {
		ratio[i] = p[i] / o[i]
	}
	if allNaN(ratio) {
		return na("insufficient numeric data")
	}

	high := countAbove(ratio, th.PaidOrganicMax)
	volatile := 0
	for _, v := range pctChange(ratio) {
		if math.Abs(v) > th.PaidOrganicVolatility {
			volatile++
		}
	}
	if high >= 2 || volatile >= 3 {
		return warn("paid versus organic looks imbalanced or volatile")
	}
	return pass("paid versus organic balance reasonable")
}

func evalFunnelConsistency(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok1 := in.table(domain.DomainMarketing)
	ops, ok2 := in.table(domain.DomainOperations)
	if !ok1 || !ok2 {
		return na("requires marketing and operations data")
	}
	leads := findColumn(mkt, "leads", "total_leads", "unique_leads")
	sql := findColumn(mkt, "sql", "qualified_leads", "sales_qualified_leads")
	orders := findColumn(ops, "orders", "total_orders", "completed_orders", "shipments")
	if leads == "" || sql == "" || orders == "" {
		return na("columns not found (leads/sql/orders)")
	}

	l := fillNaN(floats(mkt, leads), 0)
	s := fillNaN(floats(mkt, sql), 0)
	o := fillNaN(floats(ops, orders), 0)

	n := len(l)
	if len(o) < n {
		n = len(o)
	}
	const eps = 1e-6
	viol := 0
	for i := 0; i < n; i++ {
		if l[i]+eps < s[i]-eps || s[i]+eps < o[i]-eps {
			viol++
		}
	}
	switch {
	case viol >= th.adverseFloor(n, th.FunnelFailShare):
		return fail(fmt.Sprintf("funnel inconsistency in %d/%d periods", viol, n))
	case viol > 0:
		return warn(fmt.Sprintf("minor funnel inconsistency in %d/%d periods", viol, n))
	}
	return pass("lead to SQL to order funnel consistent")
}

func evalForecastAccuracy(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	fin, ok := in.table(domain.DomainFinance)
	if !ok {
		return na("requires finance data")
	}
	forecast := findColumn(fin, "revenue_forecast", "forecast_revenue", "proj_revenue")
	actual := findColumn(fin, "revenue", "sales", "booked_revenue", "turnover")
	if forecast == "" || actual == "" {
		return na("columns not found (forecast/actual revenue)")
	}

	f := fillNaN(floats(fin, forecast), 0)
	a := fillNaN(floats(fin, actual), 0)
	bad := 0
	for i := range a {
		tol := math.Abs(a[i]) * th.ForecastTolShare
		if tol < 1.0 {
			tol = 1.0
		}
		if math.Abs(f[i]-a[i]) > tol {
			bad++
		}
	}
	switch {
	case bad >= th.adverseFloor(len(a), th.AdverseShare):
		return fail(fmt.Sprintf("%d periods outside forecast tolerance", bad))
	case bad > 0:
		return warn(fmt.Sprintf("%d periods with borderline forecast error", bad))
	}
	return pass("forecast versus actual within tolerance")
}

func evalPriceElasticity(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	fin, ok1 := in.table(domain.DomainFinance)
	ops, ok2 := in.table(domain.DomainOperations)
	if !ok1 || !ok2 {
		return na("requires finance and operations data")
	}
	revenue := findColumn(fin, "revenue", "sales", "booked_revenue", "turnover")
	orders := findColumn(ops, "orders", "total_orders", "completed_orders", "shipments")
	if revenue == "" || orders == "" {
		return na("columns not found (revenue/orders)")
	}

	rev := fillNaN(floats(fin, revenue), 0)
	ord := ffill(zeroToNaN(floats(ops, orders)))
	price := perHead(rev, ord)
	if allNaN(price) || allNaN(ord) {
		return na("insufficient data to estimate elasticity")
	}

	corr := pairCorr(price, ord)
	if math.IsNaN(corr) {
		return na("insufficient overlap to compute correlation")
	}
	if corr > th.ElasticityCorrWarn {
		return warn(fmt.Sprintf("positive price/volume correlation (corr=%.2f)", corr))
	}
	return pass(fmt.Sprintf("elasticity plausible (corr=%.2f)", corr))
}

func evalBacklogComplaints(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ops, ok := in.table(domain.DomainOperations)
	if !ok {
		return na("requires operations data")
	}
	backlog := findColumn(ops, "backlog", "order_backlog", "pending_orders", "open_orders")
	complaints := findColumn(ops, "complaints", "customer_complaints", "tickets")
	if backlog == "" || complaints == "" {
		return na("columns not found (backlog/complaints)")
	}

	corr := pairCorr(fillNaN(floats(ops, backlog), 0), fillNaN(floats(ops, complaints), 0))
	if math.IsNaN(corr) {
		return na("insufficient overlap to compute correlation")
	}
	if corr < 0 {
		return warn(fmt.Sprintf("backlog rising with complaints falling (corr=%.2f), data worth checking", corr))
	}
	return pass(fmt.Sprintf("complaints move with backlog (corr=%.2f)", corr))
}

func evalMaintenanceDefects(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ops, ok := in.table(domain.DomainOperations)
	if !ok {
		return na("requires operations data")
	}
	maint := findColumn(ops, "maintenance_spend", "maintenance_cost", "maint_spend")
	defects := findColumn(ops, "defect_rate", "defects", "quality_defect_rate")
	if maint == "" || defects == "" {
		return na("columns not found (maintenance_spend/defects)")
	}

	mUp, _ := growth(floats(ops, maint), 0.05, th.GrowthDown)
	dUp, _ := growth(floats(ops, defects), 0.01, th.GrowthDown)
	if bad := coincident(mUp, dUp); bad >= 2 {
		return warn(fmt.Sprintf("%d periods with maintenance spend up but defects up", bad))
	}
	return pass("maintenance spend aligns with the defect trend")
}

func evalHiringVelocity(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ppl, ok1 := in.table(domain.DomainPeople)
	fin, ok2 := in.table(domain.DomainFinance)
	tal, ok3 := in.table(domain.DomainTalent)
	if !ok1 || !ok2 || !ok3 {
		return na("requires people, finance and talent data")
	}
	head := findColumn(ppl, "headcount", "total_headcount", "employees")
	hires := findColumn(tal, "new_hires", "hiring", "offers_accepted", "joined")
	revenue := findColumn(fin, "revenue", "sales", "booked_revenue", "turnover")
	if head == "" || hires == "" || revenue == "" {
		return na("columns not found (headcount/hires/revenue)")
	}

	hc := ffill(zeroToNaN(floats(ppl, head)))
	rpe := perHead(fillNaN(floats(fin, revenue), 0), hc)
	rpeDown := countBelow(pctChange(rpe), -0.15)
	hUp, _ := growth(floats(tal, hires), 0.1, th.GrowthDown)
	if rpeDown >= 2 && countTrue(hUp) >= 2 {
		return warn("revenue per employee falling while hiring velocity increases")
	}
	return pass("revenue per employee versus hiring velocity acceptable")
}

func evalLTVCAC(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok1 := in.table(domain.DomainMarketing)
	_, ok2 := in.table(domain.DomainFinance)
	if !ok1 || !ok2 {
		return na("requires marketing and finance data")
	}
	ltv := findColumn(mkt, "ltv", "customer_ltv", "avg_ltv")
	cac := findColumn(mkt, "cac", "customer_acquisition_cost")
	if ltv == "" || cac == "" {
		return na("columns not found (ltv/cac)")
	}

	l := zeroToNaN(floats(mkt, ltv))
	c := zeroToNaN(floats(mkt, cac))
	low, extreme, valid := 0, 0, 0
	for i := range l {
		ratio := l[i] / c[i]
		if math.IsNaN(ratio) {
			continue
		}
		valid++
		if ratio < th.LTVCACMin {
			low++
		}
		if ratio > th.LTVCACMax {
			extreme++
		}
	}
	switch {
	case valid == 0:
		return na("insufficient LTV or CAC data")
	case low >= 2:
		return fail(fmt.Sprintf("%d periods with LTV:CAC below %.0f", low, th.LTVCACMin))
	case extreme >= 2:
		return warn(fmt.Sprintf("%d periods with LTV:CAC unusually high", extreme))
	}
	return pass("LTV:CAC within reasonable bounds")
}

func evalSpendLeadQuality(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	mkt, ok := in.table(domain.DomainMarketing)
	if !ok {
		return na("requires marketing data")
	}
	spend := findColumn(mkt, "marketing_spend", "ad_spend", "total_spend", "spend")
	leads := findColumn(mkt, "leads", "total_leads", "unique_leads")
	conv := findColumn(mkt, "lead_to_sql_rate", "lead_quality_score", "conversion_rate")
	if spend == "" || leads == "" || conv == "" {
		return na("columns not found (spend/leads/conversion)")
	}

	sUp, _ := growth(floats(mkt, spend), th.GrowthUp, th.GrowthDown)
	_, qDown := growth(floats(mkt, conv), th.GrowthUp, -0.05)
	if bad := coincident(sUp, qDown); bad >= 2 {
		return warn(fmt.Sprintf("%d periods with spend up while lead quality falls", bad))
	}
	return pass("spend versus lead quality stable")
}

func evalOvertimeSLA(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	ops, ok := in.table(domain.DomainOperations)
	if !ok {
		return na("requires operations data")
	}
	overtime := findColumn(ops, "overtime_hours", "overtime_cost", "ot_hours")
	breaches := findColumn(ops, "sla_breaches", "breaches", "sla_missed")
	if overtime == "" || breaches == "" {
		return na("columns not found (overtime/sla_breaches)")
	}

	otUp, _ := growth(floats(ops, overtime), 0.05, th.GrowthDown)
	_, brDown := growth(floats(ops, breaches), th.GrowthUp, -0.05)

	// Overtime spent without the breach count improving is the miss.
	n := len(otUp)
	if len(brDown) < n {
		n = len(brDown)
	}
	miss := 0
	for i := 0; i < n; i++ {
		if otUp[i] && !brDown[i] {
			miss++
		}
	}
	if miss >= 2 {
		return warn(fmt.Sprintf("%d periods with overtime up and no SLA improvement", miss))
	}
	return pass("overtime seems to help SLA outcomes")
}

func evalRunwaySpendHiring(in Inputs, th Thresholds) (domain.FindingStatus, string) {
	fin, ok1 := in.table(domain.DomainFinance)
	mkt, ok2 := in.table(domain.DomainMarketing)
	tal, ok3 := in.table(domain.DomainTalent)
	if !ok1 || !ok2 || !ok3 {
		return na("requires finance, marketing and talent data")
	}
	runway := findColumn(fin, "runway_months", "months_of_runway", "cash_runway_months")
	spend := findColumn(mkt, "marketing_spend", "ad_spend", "total_spend", "spend")
	hires := findColumn(tal, "new_hires", "hiring", "offers_accepted", "joined")
	if runway == "" || spend == "" || hires == "" {
		return na("columns not found (runway/spend/hiring)")
	}

	r := fillNaN(floats(fin, runway), 0)
	lowRunway := countBelow(r, th.RunwayMonthsMin)
	sUp, _ := growth(fillNaN(floats(mkt, spend), 0), th.GrowthUp, th.GrowthDown)
	hUp, _ := growth(fillNaN(floats(tal, hires), 0), th.GrowthUp, th.GrowthDown)
	sUpCount, hUpCount := countTrue(sUp), countTrue(hUp)

	switch {
	case lowRunway >= 2 && sUpCount >= 2 && hUpCount >= 2:
		return fail("low runway while spend and hiring rise across multiple periods")
	case lowRunway >= 1 && (sUpCount >= 1 || hUpCount >= 1):
		return warn("runway tight with rising spend or hiring")
	}
	return pass("runway versus spend and hiring looks reasonable")
}

// perHead divides element-wise; NaN denominators yield NaN.
func perHead(num, den []float64) []float64 {
	n := len(num)
	if len(den) < n {
		n = len(den)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = num[i] / den[i]
	}
	return out
}

func countBelow(x []float64, limit float64) int {
	n := 0
	for _, v := range x {
		if v < limit {
			n++
		}
	}
	return n
}

func countAbove(x []float64, limit float64) int {
	n := 0
	for _, v := range x {
		if v > limit {
			n++
		}
	}
	return n
}
