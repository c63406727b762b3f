package constants

const (
	DefaultHabitWeight = 3
	MinHabitWeight     = 1
	MaxHabitWeight     = 5
	DefaultHabitTarget = 1
	DefaultTimeframe   = "daily"

	DefaultCategoryColor = "#6b7280"

	// DefaultCategoryPrefix marks the preset categories seeded into every new snapshot.
	// Preset ids are not UUIDs and never leave the device.
	DefaultCategoryPrefix = "cat-"
)
