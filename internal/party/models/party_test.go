package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedflow/internal/determination"
	"deedflow/internal/party/models"
)

func TestMachine_MonotonicExceptCorrection(t *testing.T) {
	m := models.Machine()

	assert.True(t, m.Can(models.StatusPending, models.EventSendLink))
	assert.True(t, m.Can(models.StatusLinkSent, models.EventSendLink))
	assert.True(t, m.Can(models.StatusLinkSent, models.EventOpenLink))
	assert.True(t, m.Can(models.StatusInProgress, models.EventSubmit))
	assert.True(t, m.Can(models.StatusSubmitted, models.EventVerify))

	// The only regression is the staff correction request.
	assert.True(t, m.Can(models.StatusSubmitted, models.EventRequestCorrection))
	assert.False(t, m.Can(models.StatusVerified, models.EventRequestCorrection))
	assert.False(t, m.Can(models.StatusInProgress, models.EventOpenLink))
	assert.False(t, m.Can(models.StatusPending, models.EventSubmit))
	assert.False(t, m.Can(models.StatusVerified, models.EventSendLink))
}

func TestStatusAtLeast(t *testing.T) {
	assert.True(t, models.StatusSubmitted.AtLeast(models.StatusInProgress))
	assert.True(t, models.StatusSubmitted.AtLeast(models.StatusSubmitted))
	assert.False(t, models.StatusLinkSent.AtLeast(models.StatusSubmitted))
	assert.True(t, models.StatusVerified.AtLeast(models.StatusPending))
}

func TestKindFor(t *testing.T) {
	kind, err := models.KindFor(models.RoleTransferee, determination.FormTrust)
	require.NoError(t, err)
	assert.Equal(t, models.KindTransfereeTrust, kind)

	_, err = models.KindFor(models.RoleBeneficialOwner, determination.FormTrust)
	assert.Error(t, err)

	_, err = models.KindFor(models.RoleReportingPerson, determination.FormTrust)
	assert.Error(t, err)
}
