package determination

import (
	"sort"
	"strings"

	dErrors "deedflow/pkg/domain-errors"
	pstrings "deedflow/pkg/platform/strings"
)

// Engine evaluates transaction attributes and produces a reportability
// verdict with exemption reasons. Pure, total, deterministic: identical input
// always yields identical output.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Determine runs the ordered decision procedure:
//
//  1. Property-type gate: non-residential property is exempt outright.
//  2. Financing gate: a regulated lender under AML obligations makes the
//     transfer exempt. Unknown financing is NOT exempt (conservative
//     default: reportable until proven otherwise).
//  3. Buyer-form checklist: any selected exemption category exempts.
//  4. Otherwise reportable, with no reasons.
//
// A gate that fires short-circuits later exemption checks. A missing
// required answer yields VerdictUndetermined, never a silent default to
// exempt or reportable. Contradictory input (selections from another form's
// checklist) is an InvalidAttributes error.
func (e *Engine) Determine(attrs Attributes) (Result, error) {
	attrs.ExemptionSelections = pstrings.DedupeAndTrim(attrs.ExemptionSelections)

	// Gate 1: property type.
	switch attrs.PropertyClass {
	case PropertyResidential, PropertyLand:
		// in scope, keep evaluating
	case PropertyCommercial:
		return Result{Verdict: VerdictExempt, Reasons: []Reason{ReasonPropertyTypeExcluded}}, nil
	case "":
		return Result{Verdict: VerdictUndetermined}, nil
	default:
		return Result{}, dErrors.New(dErrors.CodeInvalidAttributes,
			"unrecognized property classification").Add("property_class", string(attrs.PropertyClass))
	}

	// Gate 2: financing.
	switch attrs.Financing {
	case FinancingFinanced, FinancingPartial:
		if attrs.RegulatedLender {
			return Result{Verdict: VerdictExempt, Reasons: []Reason{ReasonRegulatedLender}}, nil
		}
	case FinancingCash, FinancingUnknown:
		// unknown is an answered question; it does not exempt
	case "":
		return Result{Verdict: VerdictUndetermined}, nil
	default:
		return Result{}, dErrors.New(dErrors.CodeInvalidAttributes,
			"unrecognized financing mode").Add("financing", string(attrs.Financing))
	}

	// Gate 3: buyer-form checklist.
	checklist := checklistFor(attrs.BuyerForm)
	if checklist == nil {
		if attrs.BuyerForm == "" {
			return Result{Verdict: VerdictUndetermined}, nil
		}
		return Result{}, dErrors.New(dErrors.CodeInvalidAttributes,
			"unrecognized buyer legal form").Add("buyer_form", string(attrs.BuyerForm))
	}

	matched, unknown := selectedReasons(checklist, attrs.ExemptionSelections)
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Result{}, dErrors.New(dErrors.CodeInvalidAttributes,
			"exemption selections do not belong to the "+string(attrs.BuyerForm)+" checklist: "+
				strings.Join(unknown, ", "))
	}
	if len(matched) > 0 {
		return Result{Verdict: VerdictExempt, Reasons: matched}, nil
	}

	return Result{Verdict: VerdictReportable, Reasons: []Reason{}}, nil
}
