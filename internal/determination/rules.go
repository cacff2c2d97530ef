package determination

// Exemption checklists per buyer legal form. The category lists are fixed
// regulatory enumerations, not user-configurable. Order within each list is
// the canonical reason order, so Determine yields reasons deterministically
// regardless of selection order.

// Individual checklist: transfer circumstances that take an individual buyer
// out of scope.
const (
	ReasonTransferOnDeath     Reason = "transfer-on-death"
	ReasonDivorceSettlement   Reason = "divorce-settlement"
	ReasonBankruptcyEstate    Reason = "bankruptcy-estate"
	ReasonCourtOrderedTransfer Reason = "court-ordered-transfer"
)

// Entity checklist: 15 fixed categories of regulated or publicly accountable
// entities.
const (
	ReasonPubliclyTradedIssuer      Reason = "publicly-traded-issuer"
	ReasonGovernmentAuthority       Reason = "government-authority"
	ReasonBank                      Reason = "bank"
	ReasonCreditUnion               Reason = "credit-union"
	ReasonMoneyServicesBusiness     Reason = "money-services-business"
	ReasonBrokerDealer              Reason = "broker-dealer"
	ReasonSecuritiesExchange        Reason = "securities-exchange"
	ReasonInsuranceCompany          Reason = "insurance-company"
	ReasonInsuranceProducer         Reason = "licensed-insurance-producer"
	ReasonCommodityExchangeEntity   Reason = "commodity-exchange-entity"
	ReasonPublicUtility             Reason = "public-utility"
	ReasonFinancialMarketUtility    Reason = "financial-market-utility"
	ReasonRegisteredInvestmentCo    Reason = "registered-investment-company"
	ReasonRegisteredInvestmentAdv   Reason = "registered-investment-adviser"
	ReasonWhollyControlledSubsidiary Reason = "wholly-controlled-subsidiary"
)

// Trust checklist: 4 fixed categories.
const (
	ReasonPubliclyTradedTrust  Reason = "publicly-traded-trust"
	ReasonRegulatedTrustee     Reason = "regulated-trustee"
	ReasonCharitableTrust      Reason = "charitable-trust"
	ReasonStatutoryExemptTrust Reason = "statutory-exempt-trust"
)

var individualChecklist = []Reason{
	ReasonTransferOnDeath,
	ReasonDivorceSettlement,
	ReasonBankruptcyEstate,
	ReasonCourtOrderedTransfer,
}

var entityChecklist = []Reason{
	ReasonPubliclyTradedIssuer,
	ReasonGovernmentAuthority,
	ReasonBank,
	ReasonCreditUnion,
	ReasonMoneyServicesBusiness,
	ReasonBrokerDealer,
	ReasonSecuritiesExchange,
	ReasonInsuranceCompany,
	ReasonInsuranceProducer,
	ReasonCommodityExchangeEntity,
	ReasonPublicUtility,
	ReasonFinancialMarketUtility,
	ReasonRegisteredInvestmentCo,
	ReasonRegisteredInvestmentAdv,
	ReasonWhollyControlledSubsidiary,
}

var trustChecklist = []Reason{
	ReasonPubliclyTradedTrust,
	ReasonRegulatedTrustee,
	ReasonCharitableTrust,
	ReasonStatutoryExemptTrust,
}

// checklistFor returns the canonical checklist for a buyer legal form.
func checklistFor(form LegalForm) []Reason {
	switch form {
	case FormIndividual:
		return individualChecklist
	case FormEntity:
		return entityChecklist
	case FormTrust:
		return trustChecklist
	default:
		return nil
	}
}

// selectedReasons filters the raw selections against the canonical checklist,
// returning matches in checklist order and reporting any selection that does
// not belong to the checklist.
func selectedReasons(checklist []Reason, selections []string) (matched []Reason, unknown []string) {
	selected := make(map[string]struct{}, len(selections))
	for _, s := range selections {
		selected[s] = struct{}{}
	}
	for _, r := range checklist {
		if _, ok := selected[string(r)]; ok {
			matched = append(matched, r)
			delete(selected, string(r))
		}
	}
	for s := range selected {
		unknown = append(unknown, s)
	}
	return matched, unknown
}
