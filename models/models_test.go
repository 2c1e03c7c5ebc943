package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnums(t *testing.T) {
	p, ok := ParsePillar("Environmental")
	assert.True(t, ok)
	assert.Equal(t, PillarEnvironmental, p)
	_, ok = ParsePillar("cultural")
	assert.False(t, ok, "pillar names are case sensitive")

	s, ok := ParseStatus("Revision Requested")
	assert.True(t, ok)
	assert.Equal(t, StatusRevisionRequested, s)
	_, ok = ParseStatus("Archived")
	assert.False(t, ok)

	r, ok := ParseRole("Super Admin")
	assert.True(t, ok)
	assert.Equal(t, RoleSuperAdmin, r)
	_, ok = ParseRole("admin")
	assert.False(t, ok)

	_, ok = ParseSensitivity("Secret")
	assert.False(t, ok)
}

func TestEveryPillarHasCategories(t *testing.T) {
	for _, p := range Pillars {
		assert.NotEmpty(t, PillarCategories[p], p)
	}
	assert.Len(t, PillarCategories, len(Pillars))
}
