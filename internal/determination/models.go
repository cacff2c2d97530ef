// Package determination decides whether a real-estate transaction must be
// reported to the regulatory authority. The engine is a pure function over
// transaction attributes; it never touches storage and never consults the
// clock, which keeps re-evaluation idempotent and the rules testable.
package determination

// PropertyClass classifies the transferred property.
type PropertyClass string

const (
	PropertyResidential PropertyClass = "residential"
	PropertyLand        PropertyClass = "land"
	PropertyCommercial  PropertyClass = "commercial"
)

// FinancingMode describes how the purchase is funded. Unknown is a valid
// answer (buyer declined or escrow has not confirmed); an empty value means
// the question was never answered.
type FinancingMode string

const (
	FinancingCash     FinancingMode = "cash"
	FinancingFinanced FinancingMode = "financed"
	FinancingPartial  FinancingMode = "partial"
	FinancingUnknown  FinancingMode = "unknown"
)

// LegalForm is the buyer's legal form, which selects the exemption checklist.
type LegalForm string

const (
	FormIndividual LegalForm = "individual"
	FormEntity     LegalForm = "entity"
	FormTrust      LegalForm = "trust"
)

// Verdict is the engine's classification of a submission.
type Verdict string

const (
	// VerdictReportable means the transaction must be filed.
	VerdictReportable Verdict = "reportable"
	// VerdictExempt means at least one exemption applies; reasons name them.
	VerdictExempt Verdict = "exempt"
	// VerdictUndetermined means a required input was never answered. Callers
	// must re-prompt; progression is blocked until the verdict resolves.
	VerdictUndetermined Verdict = "undetermined"
)

// Method records how a verdict was reached.
type Method string

const (
	MethodAutomatic      Method = "automatic"
	MethodManualOverride Method = "manual_override"
)

// Reason is a fixed exemption reason code.
type Reason string

// Gate-level reasons.
const (
	ReasonPropertyTypeExcluded Reason = "property-type-excluded"
	ReasonRegulatedLender      Reason = "financed-transaction-with-regulated-lender"
)

// Attributes is the engine's complete input: the intake answers relevant to
// reportability. ExemptionSelections holds the raw checklist selections for
// the buyer's legal form; selections belonging to a different form are
// contradictory input and rejected.
type Attributes struct {
	PropertyClass PropertyClass
	Financing     FinancingMode
	// RegulatedLender is set when financing involves a lender under
	// anti-money-laundering obligations.
	RegulatedLender     bool
	BuyerForm           LegalForm
	ExemptionSelections []string
}

// Result pairs the verdict with the exemption reasons that produced it.
// Reasons is empty for reportable and undetermined verdicts.
type Result struct {
	Verdict Verdict
	Reasons []Reason
}
