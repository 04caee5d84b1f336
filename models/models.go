package models

// All returns every entity in dependency order, for auto-migration.
func All() []any {
	return []any{
		&PurposeCategory{},
		&AudienceCategory{},
		&StyleCategory{},
		&EmotionCategory{},
		&Journal{},
		&JournalPurpose{},
		&JournalAudience{},
		&Photo{},
		&JournalPhoto{},
		&PhotoMetadata{},
		&PhotoQuestionnaire{},
		&PhotoEmotion{},
	}
}
