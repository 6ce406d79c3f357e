package domain

// Default engine values, overridden by config.toml
const (
	DefaultHoldTTLSeconds      = 15 * 60
	DefaultMaxRangeDays        = 366
	DefaultSweepIntervalSecond = 30
	DefaultSweepBatchSize      = 100
)

// DefaultCapacities default total capacity of a lazily created slot per resource type
var DefaultCapacities = map[ResourceType]int{
	ResourceVehicle:       1,
	ResourceDriver:        1,
	ResourceGuide:         1,
	ResourceAccommodation: 1,
}

// Business validation constants
const (
	MaxQuantity          = 10000
	MaxBlockReasonLength = 500
	MaxNotesLength       = 500
)

// DateFormat YYYY-MM-DD
const DateFormat = "2006-01-02"
