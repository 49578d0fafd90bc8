package checks

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"

	"github.com/signal-works/pulse/pkg/models/domain"
	"github.com/signal-works/pulse/pkg/services/scoring"
)

// Kind enumerates the check catalog. Dispatch matches on it; there is no
// name-to-function map to poke at runtime.
type Kind string

const (
	KindRatioBounds       Kind = "ratio_bounds"
	KindEquation          Kind = "equation"
	KindSumReconciliation Kind = "sum_reconciliation"
	KindValueBounds       Kind = "value_bounds"
	KindValueInRange      Kind = "value_in_range"
	KindVarianceThreshold Kind = "variance_threshold"
	KindDerivedMetric     Kind = "derived_metric"
	KindMinValue          Kind = "min_value"
	KindNonNegative       Kind = "non_negative"

	KindMonotonicTime      Kind = "monotonic_time"
	KindPeriodGap          Kind = "period_gap"
	KindPeriodAlignment    Kind = "period_alignment"
	KindFiscalClosePresent Kind = "fiscal_close_present"

	KindDeviationFromRollingMean Kind = "deviation_from_rolling_mean"
	KindRollingMeanRange         Kind = "rolling_mean_range"

	KindPctChangeRange       Kind = "pct_change_range"
	KindTrendCorrelation     Kind = "trend_correlation"
	KindLeadLagCorrelation   Kind = "lead_lag_correlation"
	KindConditionalTrendFlag Kind = "conditional_trend_flag"

	KindMixChangeBounds    Kind = "mix_change_bounds"
	KindRatioConsistency   Kind = "ratio_consistency"
	KindMappingConsistency Kind = "mapping_consistency"

	KindPresenceRate    Kind = "presence_rate"
	KindDuplicateValues Kind = "duplicate_values"
	KindIdenticalRows   Kind = "identical_rows_across_periods"
	KindOutlierZScore   Kind = "outlier_zscore"
	KindPolicyPresence  Kind = "policy_presence"
	KindPolicyAge       Kind = "policy_age_max_days"
	KindPIIScan         Kind = "pii_scan"
	KindHeuristicFlag   Kind = "heuristic_flag"

	KindHeadcountFlow       Kind = "headcount_flow"
	KindAttritionRateBounds Kind = "attrition_rate_bounds"
	KindBandVarianceBound   Kind = "band_variance_bound"
	KindMedianGapBound      Kind = "median_gap_bound"
	KindPromotionRateTrend  Kind = "promotion_rate_trend"
	KindTrainingHoursBounds Kind = "training_hours_bounds"
	KindBandAlignment       Kind = "band_alignment"
	KindOnboardingRate      Kind = "onboarding_completion_rate"
	KindDocumentMetadata    Kind = "document_metadata"
)

// Older rule packs carry historical names; they normalize onto the catalog.
var kindAliases = map[string]Kind{
	"ratio_bounds_intents":           KindRatioBounds,
	"ratio_bounds_intents_grouped":   KindRatioBounds,
	"equation_intents":               KindEquation,
	"equation_intents_tolerance":     KindEquation,
	"equation_tolerance_optional":    KindEquation,
	"equation_intents_absolute":      KindEquation,
	"sum_reconciliation_intents":     KindSumReconciliation,
	"variance_bounds":                KindVarianceThreshold,
	"monotonic_time_intents":         KindMonotonicTime,
	"fiscal_year_close_present":      KindFiscalClosePresent,
	"period_gap_check":               KindPeriodGap,
	"period_alignment_multi":         KindPeriodAlignment,
	"trend_correlation_intents":      KindTrendCorrelation,
	"correlation_threshold":          KindTrendCorrelation,
	"conditional_trend_flag_intents": KindConditionalTrendFlag,
	"duplicate_values_multi":         KindDuplicateValues,
	"outlier_sigma_intents":          KindOutlierZScore,
	"headcount_flow_consistency":     KindHeadcountFlow,
	"department_mix_change_bounds":   KindMixChangeBounds,
	"band_alignment_check":           KindBandAlignment,
	"document_metadata_check":        KindDocumentMetadata,
}

// NormalizeKind resolves a config string to a catalog kind. The second
// return is false for names outside the catalog.
func NormalizeKind(s string) (Kind, bool) {
	if k, ok := kindAliases[s]; ok {
		return k, true
	}
	switch k := Kind(s); k {
	case KindRatioBounds, KindEquation, KindSumReconciliation, KindValueBounds,
		KindValueInRange, KindVarianceThreshold, KindDerivedMetric, KindMinValue,
		KindNonNegative, KindMonotonicTime, KindPeriodGap, KindPeriodAlignment,
		KindFiscalClosePresent, KindDeviationFromRollingMean, KindRollingMeanRange,
		KindPctChangeRange, KindTrendCorrelation, KindLeadLagCorrelation,
		KindConditionalTrendFlag, KindMixChangeBounds, KindRatioConsistency,
		KindMappingConsistency, KindPresenceRate, KindDuplicateValues,
		KindIdenticalRows, KindOutlierZScore, KindPolicyPresence, KindPolicyAge,
		KindPIIScan, KindHeuristicFlag, KindHeadcountFlow, KindAttritionRateBounds,
		KindBandVarianceBound, KindMedianGapBound, KindPromotionRateTrend,
		KindTrainingHoursBounds, KindBandAlignment, KindOnboardingRate,
		KindDocumentMetadata:
		return k, true
	}
	return "", false
}

// Spec is one check as authored in a rule file: the kind plus its raw
// parameter map. Table is only meaningful on the multi-table path.
type Spec struct {
	Kind   string
	Table  string
	Params map[string]any
}

// Machine readable notes carried on degraded results.
const (
	NoteMissingColumns     = "missing_columns"
	NoteInsufficientPoints = "insufficient_points"
	NoteCheckPanic         = "check_threw_exception"
	NoteUnknownKind        = "unknown_check_type"
)

// Dispatch runs one check against the dataset. It never returns an error:
// missing inputs degrade to warns, a panicking or misconfigured check comes
// back as a warn with score 0.4, and unknown kinds warn at 0.6. The dataset
// pointer lets derived_metric publish columns for later checks in the same
// rule chain.
func Dispatch(ctx context.Context, spec Spec, ds *domain.Dataset) (res domain.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().
				Str("check", spec.Kind).
				Interface("panic", r).
				Msg("check panicked")
			res = degraded(spec, fmt.Sprintf("%v", r))
		}
	}()

	kind, known := NormalizeKind(spec.Kind)
	if !known {
		res = domain.CheckResult{
			Kind:    spec.Kind,
			Table:   spec.Table,
			Status:  domain.CheckWarn,
			Score:   scoring.StatusScore(domain.CheckWarn),
			Note:    NoteUnknownKind,
			Details: map[string]any{"type": spec.Kind},
		}
		return res
	}

	params := normalizeParams(spec.Kind, spec.Params)

	var (
		r   domain.CheckResult
		err error
	)
	switch kind {
	case KindRatioBounds:
		r, err = ratioBounds(ds, params)
	case KindEquation:
		r, err = equation(ds, params)
	case KindSumReconciliation:
		r, err = sumReconciliation(ds, params)
	case KindValueBounds:
		r, err = valueBounds(ds, params)
	case KindValueInRange:
		r, err = valueInRange(ds, params)
	case KindVarianceThreshold:
		r, err = varianceThreshold(ds, params)
	case KindDerivedMetric:
		r, err = derivedMetric(ds, params)
	case KindMinValue:
		r, err = minValue(ds, params)
	case KindNonNegative:
		r, err = nonNegative(ds, params)
	case KindMonotonicTime:
		r, err = monotonicTime(ds, params)
	case KindPeriodGap:
		r, err = periodGap(ds, params)
	case KindPeriodAlignment:
		r, err = periodAlignment(ds, params)
	case KindFiscalClosePresent:
		r, err = fiscalClosePresent(ds, params)
	case KindDeviationFromRollingMean:
		r, err = deviationFromRollingMean(ds, params)
	case KindRollingMeanRange:
		r, err = rollingMeanRange(ds, params)
	case KindPctChangeRange:
		r, err = pctChangeRange(ds, params)
	case KindTrendCorrelation:
		r, err = trendCorrelation(ds, params)
	case KindLeadLagCorrelation:
		r, err = leadLagCorrelation(ds, params)
	case KindConditionalTrendFlag:
		r, err = conditionalTrendFlag(ds, params)
	case KindMixChangeBounds:
		r, err = mixChangeBounds(ds, params)
	case KindRatioConsistency:
		r, err = ratioConsistency(ds, params)
	case KindMappingConsistency:
		r, err = mappingConsistency(ds, params)
	case KindPresenceRate:
		r, err = presenceRate(ds, params)
	case KindDuplicateValues:
		r, err = duplicateValues(ds, params)
	case KindIdenticalRows:
		r, err = identicalRows(ds, params)
	case KindOutlierZScore:
		r, err = outlierZScore(ds, params)
	case KindPolicyPresence:
		r, err = policyPresence(ds, params)
	case KindPolicyAge:
		r, err = policyAge(ds, params)
	case KindPIIScan:
		r, err = piiScan(ds, params)
	case KindHeuristicFlag:
		r, err = heuristicFlag(ds, params)
	case KindHeadcountFlow:
		r, err = headcountFlow(ds, params)
	case KindAttritionRateBounds:
		r, err = attritionRateBounds(ds, params)
	case KindBandVarianceBound:
		r, err = bandVarianceBound(ds, params)
	case KindMedianGapBound:
		r, err = medianGapBound(ds, params)
	case KindPromotionRateTrend:
		r, err = promotionRateTrend(ds, params)
	case KindTrainingHoursBounds:
		r, err = trainingHoursBounds(ds, params)
	case KindBandAlignment:
		r, err = bandAlignment(ds, params)
	case KindOnboardingRate:
		r, err = onboardingRate(ds, params)
	case KindDocumentMetadata:
		r, err = documentMetadata(ds, params)
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Str("check", string(kind)).
			Err(err).
			Msg("check degraded")
		res = degraded(spec, err.Error())
		res.Kind = string(kind)
		return res
	}

	r.Kind = string(kind)
	r.Table = spec.Table
	return r
}

// degraded is the uniform shape for checks that blew up instead of
// evaluating: a warn at 0.4 so the rule dips without hard failing.
func degraded(spec Spec, reason string) domain.CheckResult {
	return domain.CheckResult{
		Kind:    spec.Kind,
		Table:   spec.Table,
		Status:  domain.CheckWarn,
		Score:   0.4,
		Note:    NoteCheckPanic,
		Details: map[string]any{"error": reason},
	}
}

// normalizeParams folds tolerance synonyms onto the canonical key before the
// typed decode; everything else passes through untouched. The raw kind name
// matters: the historical absolute equation variant implied its mode.
func normalizeParams(rawKind string, params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	if _, ok := out["tolerance"]; !ok {
		for _, syn := range []string{"tolerance_abs", "tol_abs", "abs_tol", "tol"} {
			if v, ok := out[syn]; ok {
				out["tolerance"] = v
				break
			}
		}
	}
	if rawKind == "equation_intents_absolute" {
		if _, ok := out["tolerance_mode"]; !ok {
			out["tolerance_mode"] = "absolute"
		}
	}
	return out
}

// decodeParams fills a typed parameter struct from the raw map, ignoring
// keys the kind does not declare. Weak typing keeps YAML scalars flexible.
func decodeParams[T any](params map[string]any, out *T) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// Result constructors shared by the kind implementations.

func pass(details map[string]any) domain.CheckResult {
	return domain.CheckResult{Status: domain.CheckPass, Score: scoring.StatusScore(domain.CheckPass), Details: details}
}

func fail(details map[string]any) domain.CheckResult {
	return domain.CheckResult{Status: domain.CheckFail, Score: scoring.StatusScore(domain.CheckFail), Details: details}
}

func warn(note string, details map[string]any) domain.CheckResult {
	return domain.CheckResult{Status: domain.CheckWarn, Score: scoring.StatusScore(domain.CheckWarn), Note: note, Details: details}
}

// graded maps ok onto pass/fail, or pass/warn when soft is set.
func graded(ok bool, soft bool, details map[string]any) domain.CheckResult {
	if ok {
		return pass(details)
	}
	if soft {
		return warn("", details)
	}
	return fail(details)
}

// softMissing degrades a check whose input columns never resolved.
func softMissing(missing []string) domain.CheckResult {
	r := warn(NoteMissingColumns, nil)
	r.Missing = missing
	return r
}

// missingColumns lists required columns absent from the dataset.
func missingColumns(ds *domain.Dataset, cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if c == "" {
			continue
		}
		if !ds.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
