package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

func TestFilterActiveUnits(t *testing.T) {
	units := []model.Unit{
		{ID: 1, Status: "Active"},
		{ID: 2, Status: "active"},
		{ID: 3, Status: "inactive"},
		{ID: 4, Status: "ACTIVE"},
		{ID: 5, Status: ""},
	}

	active := filterActiveUnits(units)

	require.Len(t, active, 3)
	assert.Equal(t, 1, active[0].ID)
	assert.Equal(t, 2, active[1].ID)
	assert.Equal(t, 4, active[2].ID)
}

func TestFilterActiveUnits_Empty(t *testing.T) {
	assert.Empty(t, filterActiveUnits(nil))
}

func TestContainsUnit(t *testing.T) {
	units := []model.Unit{{ID: 1}, {ID: 7}}

	assert.True(t, containsUnit(units, 7))
	assert.False(t, containsUnit(units, 2))
	assert.False(t, containsUnit(nil, 1))
}

func TestUnitCodes(t *testing.T) {
	codes := unitCodes([]model.Unit{{Code: "CITS1001"}, {Code: "CITS2200"}})

	assert.True(t, codes["CITS1001"])
	assert.True(t, codes["CITS2200"])
	assert.False(t, codes["CITS9999"])
}
