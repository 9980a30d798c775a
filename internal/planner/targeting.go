package planner

import "github.com/adpilot/campaign-cli/internal/model"

// categoryTargeting holds static per-category audience defaults. The
// "default" entry is guaranteed; unknown categories resolve to it without
// error.
var categoryTargeting = map[string]model.Targeting{
	"electronics": {
		AgeRange:  "25-45",
		Interests: []string{"technology", "gadgets", "shopping"},
	},
	"fashion": {
		AgeRange:  "18-40",
		Interests: []string{"fashion", "style", "shopping"},
	},
	"home": {
		AgeRange:  "28-55",
		Interests: []string{"home improvement", "interior design"},
	},
	"fitness": {
		AgeRange:  "18-45",
		Interests: []string{"fitness", "health", "sports"},
	},
	"beauty": {
		AgeRange:  "18-40",
		Interests: []string{"beauty", "skincare", "cosmetics"},
	},
	"default": {
		AgeRange:  "18-65",
		Interests: []string{"shopping"},
	},
}

// TargetingFor returns the category's audience defaults, falling back to the
// default entry for unknown categories.
func TargetingFor(category string) model.Targeting {
	if t, ok := categoryTargeting[category]; ok {
		return t
	}
	return categoryTargeting["default"]
}
