package scenario

// BuiltIn returns predefined weather arcs selectable by name from the config.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"calm-day": {
			Name:        "Calm Day",
			Description: "Quiet conditions with a gentle tidal cycle and little wind chop.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Morning slack water settles in.",
					NoiseScale:  0.6,
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 30, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "A light onshore breeze stirs the surface.",
					NoiseScale:  0.9,
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 90, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Afternoon high water passes without incident.",
					LevelOffset: 0.2,
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 150, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "The tide ebbs back to a flat evening.",
					NoiseScale:  0.6,
				},
			},
		},
		"spring-tide": {
			Name:        "Spring Tide",
			Description: "New moon alignment amplifies the tidal range well above the mean.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Range begins to widen as the syzygy approaches.",
					LevelOffset: 0.3,
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 40, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Successive highs push past the usual marks.",
					LevelOffset: 0.8,
					NoiseScale:  1.2,
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 100, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Peak spring high water tops the seasonal maximum.",
					LevelOffset: 1.4,
					NoiseScale:  1.3,
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 160, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "The range relaxes toward neap conditions.",
					LevelOffset: 0.4,
				},
			},
		},
		"storm-surge": {
			Name:        "Storm Surge",
			Description: "A deep low pressure system drives water against the coast on top of the tide.",
			Phases: []Phase{
				{
					Name:        "setup",
					Description: "Falling barometer, the sea still looks ordinary.",
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 25, Next: "escalation"}},
				},
				{
					Name:        "escalation",
					Description: "Wind setup piles water into the bight.",
					LevelOffset: 1.5,
					NoiseScale:  1.5,
					Triggers:    []Trigger{{Event: EventLevelAbove, Value: 4.0, Next: "climax"}},
				},
				{
					Name:        "climax",
					Description: "Surge peak coincides with astronomical high water.",
					LevelOffset: 3.5,
					NoiseScale:  2.0,
					Triggers:    []Trigger{{Event: EventReadingsProduced, Value: 140, Next: "resolution"}},
				},
				{
					Name:        "resolution",
					Description: "The low moves inland and the surge drains away.",
					LevelOffset: 0.8,
					NoiseScale:  1.2,
				},
			},
		},
	}
}
