package statemachine

import (
	"testing"

	"heritage-api/apperr"
	"heritage-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterOwnerEdit(t *testing.T) {
	cases := map[models.Status]models.Status{
		models.StatusApproved:          models.StatusPending,
		models.StatusPending:           models.StatusPending,
		models.StatusRejected:          models.StatusRejected,
		models.StatusRevisionRequested: models.StatusRevisionRequested,
	}
	for in, want := range cases {
		assert.Equal(t, want, AfterOwnerEdit(in), in)
	}
}

func TestAdminCanSetAnyStatus(t *testing.T) {
	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			assert.NoError(t, CanTransition(from, to, ActorAdmin), "%s -> %s", from, to)
		}
	}
}

func TestOwnerTransitionsAreRestricted(t *testing.T) {
	require.NoError(t, CanTransition(models.StatusApproved, models.StatusPending, ActorOwner))

	err := CanTransition(models.StatusRejected, models.StatusApproved, ActorOwner)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidOperation))
	assert.Contains(t, err.Error(), "Valid transitions from Rejected")
}

func TestUnknownStatusRejected(t *testing.T) {
	err := CanTransition(models.StatusPending, models.Status("Archived"), ActorAdmin)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidOperation))
}

func TestValidTransitionsFrom(t *testing.T) {
	nexts := ValidTransitionsFrom(models.StatusApproved)
	assert.ElementsMatch(t, []models.Status{
		models.StatusPending, models.StatusRejected, models.StatusRevisionRequested,
	}, nexts)
	assert.Equal(t, models.StatusApproved, InitialStatus)
	assert.Len(t, GetAllTransitions(), 1+len(models.Statuses)*(len(models.Statuses)-1))
}
