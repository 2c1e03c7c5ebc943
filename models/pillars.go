package models

// PillarCategories is the conventional category list offered per pillar.
// Category stays free text; this catalog only seeds client pickers.
var PillarCategories = map[Pillar][]string{
	PillarCultural: {
		"Origin & Identity",
		"Language & Oral Traditions",
		"Beliefs & Values",
		"Rituals & Ceremonies",
		"Arts & Craftsmanship",
		"Traditional Medicine",
	},
	PillarSocial: {
		"Family & Kinship",
		"Community Leadership",
		"Education & Skill Transfer",
		"Social Wellness",
		"Festivals & Gatherings",
	},
	PillarEconomic: {
		"Traditional Commerce",
		"Agro-Trade",
		"Heritage Tourism",
		"Local Industries",
		"Sustainable Cooperatives",
	},
	PillarEnvironmental: {
		"Ancestral Land Knowledge",
		"Water Resource Management",
		"Indigenous Flora & Fauna",
		"Soil Preservation",
		"Climate Adaptation",
	},
	PillarTechnical: {
		"Traditional Engineering",
		"Food Processing Tech",
		"Tool Making",
		"Construction Techniques",
		"Water Engineering",
	},
}
