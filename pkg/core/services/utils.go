package services

import "github.com/facilitatorhub/dashboard/pkg/core/model"

// filterActiveUnits returns only units with status "active" (case-insensitive)
func filterActiveUnits(units []model.Unit) []model.Unit {
	var active []model.Unit
	for _, u := range units {
		if u.IsActive() {
			active = append(active, u)
		}
	}
	return active
}

func containsUnit(units []model.Unit, id int) bool {
	for _, u := range units {
		if u.ID == id {
			return true
		}
	}
	return false
}

// unitCodes returns the set of unit codes, used to drop sessions of units the facilitator is not assigned to
func unitCodes(units []model.Unit) map[string]bool {
	codes := make(map[string]bool, len(units))
	for _, u := range units {
		codes[u.Code] = true
	}
	return codes
}
