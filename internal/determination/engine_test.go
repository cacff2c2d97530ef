package determination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "deedflow/pkg/domain-errors"
)

func TestDetermine_PropertyGate(t *testing.T) {
	engine := NewEngine()

	t.Run("commercial property is exempt regardless of buyer answers", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass:       PropertyCommercial,
			Financing:           FinancingCash,
			BuyerForm:           FormEntity,
			ExemptionSelections: []string{string(ReasonBank)},
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictExempt, res.Verdict)
		assert.Equal(t, []Reason{ReasonPropertyTypeExcluded}, res.Reasons)
	})

	t.Run("missing property classification is undetermined", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			Financing: FinancingCash,
			BuyerForm: FormIndividual,
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictUndetermined, res.Verdict)
		assert.Empty(t, res.Reasons)
	})

	t.Run("unrecognized property classification is invalid input", func(t *testing.T) {
		_, err := engine.Determine(Attributes{PropertyClass: "houseboat"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAttributes))
	})
}

func TestDetermine_FinancingGate(t *testing.T) {
	engine := NewEngine()

	t.Run("regulated lender financing is exempt", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass:   PropertyResidential,
			Financing:       FinancingFinanced,
			RegulatedLender: true,
			BuyerForm:       FormTrust,
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictExempt, res.Verdict)
		assert.Equal(t, []Reason{ReasonRegulatedLender}, res.Reasons)
	})

	t.Run("financed without regulated lender keeps evaluating", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass: PropertyResidential,
			Financing:     FinancingFinanced,
			BuyerForm:     FormIndividual,
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictReportable, res.Verdict)
	})

	t.Run("unknown financing is not exempt", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass: PropertyLand,
			Financing:     FinancingUnknown,
			BuyerForm:     FormIndividual,
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictReportable, res.Verdict)
		assert.Empty(t, res.Reasons)
	})

	t.Run("unanswered financing is undetermined", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass: PropertyResidential,
			BuyerForm:     FormEntity,
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictUndetermined, res.Verdict)
	})
}

func TestDetermine_BuyerChecklists(t *testing.T) {
	engine := NewEngine()

	t.Run("entity with no boxes checked is reportable with empty reasons", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass: PropertyResidential,
			Financing:     FinancingCash,
			BuyerForm:     FormEntity,
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictReportable, res.Verdict)
		assert.NotNil(t, res.Reasons)
		assert.Empty(t, res.Reasons)
	})

	t.Run("entity checklist selection exempts", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass:       PropertyResidential,
			Financing:           FinancingCash,
			BuyerForm:           FormEntity,
			ExemptionSelections: []string{string(ReasonPublicUtility)},
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictExempt, res.Verdict)
		assert.Equal(t, []Reason{ReasonPublicUtility}, res.Reasons)
	})

	t.Run("reasons come back in canonical checklist order", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass: PropertyResidential,
			Financing:     FinancingCash,
			BuyerForm:     FormEntity,
			ExemptionSelections: []string{
				string(ReasonFinancialMarketUtility),
				string(ReasonBank),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []Reason{ReasonBank, ReasonFinancialMarketUtility}, res.Reasons)
	})

	t.Run("trust checklist selection exempts", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass:       PropertyLand,
			Financing:           FinancingPartial,
			BuyerForm:           FormTrust,
			ExemptionSelections: []string{string(ReasonCharitableTrust)},
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictExempt, res.Verdict)
		assert.Equal(t, []Reason{ReasonCharitableTrust}, res.Reasons)
	})

	t.Run("individual checklist selection exempts", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass:       PropertyResidential,
			Financing:           FinancingCash,
			BuyerForm:           FormIndividual,
			ExemptionSelections: []string{string(ReasonTransferOnDeath)},
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictExempt, res.Verdict)
		assert.Equal(t, []Reason{ReasonTransferOnDeath}, res.Reasons)
	})

	t.Run("selection from another form's checklist is contradictory", func(t *testing.T) {
		_, err := engine.Determine(Attributes{
			PropertyClass:       PropertyResidential,
			Financing:           FinancingCash,
			BuyerForm:           FormIndividual,
			ExemptionSelections: []string{string(ReasonBank)},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAttributes))
	})

	t.Run("missing buyer form is undetermined", func(t *testing.T) {
		res, err := engine.Determine(Attributes{
			PropertyClass: PropertyResidential,
			Financing:     FinancingCash,
		})
		require.NoError(t, err)
		assert.Equal(t, VerdictUndetermined, res.Verdict)
	})
}

// TestDetermine_Deterministic verifies the purity contract: calling the
// engine twice with identical attributes yields identical results.
func TestDetermine_Deterministic(t *testing.T) {
	engine := NewEngine()
	attrs := Attributes{
		PropertyClass: PropertyResidential,
		Financing:     FinancingCash,
		BuyerForm:     FormEntity,
		ExemptionSelections: []string{
			string(ReasonCreditUnion),
			string(ReasonBrokerDealer),
			string(ReasonCreditUnion), // duplicate on purpose
		},
	}

	first, err := engine.Determine(attrs)
	require.NoError(t, err)
	second, err := engine.Determine(attrs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []Reason{ReasonCreditUnion, ReasonBrokerDealer}, first.Reasons)
}

func TestChecklistSizes(t *testing.T) {
	// The category counts are fixed by regulation; a change here is a rules
	// change, not a refactor.
	assert.Len(t, entityChecklist, 15)
	assert.Len(t, trustChecklist, 4)
	assert.Len(t, individualChecklist, 4)
}
