package model

// Action is a human-friendly operating mode for a period.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromEnergy maps a signed dispatch (negative = charging) to an Action.
func ActionFromEnergy(energyMWh float64) Action {
	switch {
	case energyMWh < 0:
		return ActionCharging
	case energyMWh > 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
