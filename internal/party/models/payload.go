package models

import (
	"deedflow/internal/determination"
	dErrors "deedflow/pkg/domain-errors"
)

// PayloadKind tags which variant of the payload union is populated. The kind
// is fixed by the party's role and legal form; a submission carrying any
// other variant is rejected before it touches the store.
type PayloadKind string

const (
	KindTransfereeIndividual      PayloadKind = "transferee/individual"
	KindTransfereeEntity          PayloadKind = "transferee/entity"
	KindTransfereeTrust           PayloadKind = "transferee/trust"
	KindTransferorIndividual      PayloadKind = "transferor/individual"
	KindTransferorEntity          PayloadKind = "transferor/entity"
	KindTransferorTrust           PayloadKind = "transferor/trust"
	KindBeneficialOwnerIndividual PayloadKind = "beneficial_owner/individual"
	KindReportingPersonIndividual PayloadKind = "reporting_person/individual"
	KindReportingPersonEntity     PayloadKind = "reporting_person/entity"
)

// KindFor resolves the payload kind a (role, legal form) pair must use.
// Beneficial owners are always individuals and reporting persons are never
// trusts, so those combinations have no kind.
func KindFor(role Role, form determination.LegalForm) (PayloadKind, error) {
	kinds := map[Role]map[determination.LegalForm]PayloadKind{
		RoleTransferee: {
			determination.FormIndividual: KindTransfereeIndividual,
			determination.FormEntity:     KindTransfereeEntity,
			determination.FormTrust:      KindTransfereeTrust,
		},
		RoleTransferor: {
			determination.FormIndividual: KindTransferorIndividual,
			determination.FormEntity:     KindTransferorEntity,
			determination.FormTrust:      KindTransferorTrust,
		},
		RoleBeneficialOwner: {
			determination.FormIndividual: KindBeneficialOwnerIndividual,
		},
		RoleReportingPerson: {
			determination.FormIndividual: KindReportingPersonIndividual,
			determination.FormEntity:     KindReportingPersonEntity,
		},
	}
	kind, ok := kinds[role][form]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "no payload form for role and legal form").
			Add("role", string(role)).
			Add("legal_form", string(form))
	}
	return kind, nil
}

// IndividualDetails is shared by the individual variants. Field content is
// validated by the downstream filing composition, not here.
type IndividualDetails struct {
	FullName    string         `json:"full_name"`
	DateOfBirth string         `json:"date_of_birth,omitempty"`
	TaxIDRef    string         `json:"tax_id_ref,omitempty"`
	Address     string         `json:"address,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// EntityDetails is shared by the entity variants.
type EntityDetails struct {
	LegalName        string         `json:"legal_name"`
	JurisdictionCode string         `json:"jurisdiction_code,omitempty"`
	TaxIDRef         string         `json:"tax_id_ref,omitempty"`
	Address          string         `json:"address,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// TrustDetails is shared by the trust variants.
type TrustDetails struct {
	TrustName    string         `json:"trust_name"`
	TrusteeName  string         `json:"trustee_name,omitempty"`
	InstrumentAt string         `json:"instrument_date,omitempty"`
	TaxIDRef     string         `json:"tax_id_ref,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Payload is the tagged union of party-supplied data. Exactly one variant
// pointer is set, and it must agree with Kind.
type Payload struct {
	Kind PayloadKind `json:"kind"`

	TransfereeIndividual      *IndividualDetails `json:"transferee_individual,omitempty"`
	TransfereeEntity          *EntityDetails     `json:"transferee_entity,omitempty"`
	TransfereeTrust           *TrustDetails      `json:"transferee_trust,omitempty"`
	TransferorIndividual      *IndividualDetails `json:"transferor_individual,omitempty"`
	TransferorEntity          *EntityDetails     `json:"transferor_entity,omitempty"`
	TransferorTrust           *TrustDetails      `json:"transferor_trust,omitempty"`
	BeneficialOwnerIndividual *IndividualDetails `json:"beneficial_owner_individual,omitempty"`
	ReportingPersonIndividual *IndividualDetails `json:"reporting_person_individual,omitempty"`
	ReportingPersonEntity     *EntityDetails     `json:"reporting_person_entity,omitempty"`
}

func (p *Payload) variants() map[PayloadKind]bool {
	return map[PayloadKind]bool{
		KindTransfereeIndividual:      p.TransfereeIndividual != nil,
		KindTransfereeEntity:          p.TransfereeEntity != nil,
		KindTransfereeTrust:           p.TransfereeTrust != nil,
		KindTransferorIndividual:      p.TransferorIndividual != nil,
		KindTransferorEntity:          p.TransferorEntity != nil,
		KindTransferorTrust:           p.TransferorTrust != nil,
		KindBeneficialOwnerIndividual: p.BeneficialOwnerIndividual != nil,
		KindReportingPersonIndividual: p.ReportingPersonIndividual != nil,
		KindReportingPersonEntity:     p.ReportingPersonEntity != nil,
	}
}

// ValidateFor checks the payload against the party's role and legal form:
// the kind must be the one KindFor mandates, the matching variant must be
// set, and no other variant may be.
func (p *Payload) ValidateFor(role Role, form determination.LegalForm) error {
	want, err := KindFor(role, form)
	if err != nil {
		return err
	}
	if p.Kind != want {
		return dErrors.New(dErrors.CodeInvalidInput, "payload kind does not match party").
			Add("kind", string(p.Kind)).
			Add("expected", string(want))
	}
	for kind, set := range p.variants() {
		if kind == want && !set {
			return dErrors.New(dErrors.CodeInvalidInput, "payload variant missing").
				Add("kind", string(want))
		}
		if kind != want && set {
			return dErrors.New(dErrors.CodeInvalidInput, "payload carries a foreign variant").
				Add("kind", string(p.Kind)).
				Add("variant", string(kind))
		}
	}
	return nil
}
