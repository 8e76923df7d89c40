package ubx

import (
	"fmt"
	"strings"
)

// CFG-NAV5 dynamic platform models.
const (
	DynModelPortable   = 0
	DynModelStationary = 2
	DynModelPedestrian = 3
	DynModelAutomotive = 4
	DynModelSea        = 5
	DynModelAirborne1  = 6
	DynModelAirborne2  = 7
	DynModelAirborne4  = 8
	DynModelWristwatch = 9
)

// CFG-NAV5 position fixing modes.
const (
	FixMode2D   = 1
	FixMode3D   = 2
	FixModeAuto = 3
)

// ModelFromString maps a human-readable dynamic model name to its
// CFG-NAV5 code. Matching is case-insensitive. Unknown names are a
// configuration error and fail loudly.
func ModelFromString(model string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case "portable":
		return DynModelPortable, nil
	case "stationary":
		return DynModelStationary, nil
	case "pedestrian":
		return DynModelPedestrian, nil
	case "automotive":
		return DynModelAutomotive, nil
	case "sea":
		return DynModelSea, nil
	case "airborne1":
		return DynModelAirborne1, nil
	case "airborne2":
		return DynModelAirborne2, nil
	case "airborne4":
		return DynModelAirborne4, nil
	case "wristwatch":
		return DynModelWristwatch, nil
	default:
		return 0, fmt.Errorf("invalid dynamic model: %q", model)
	}
}

// FixModeFromString maps a human-readable fix mode name to its CFG-NAV5
// code. Matching is case-insensitive.
func FixModeFromString(mode string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "2d":
		return FixMode2D, nil
	case "3d":
		return FixMode3D, nil
	case "auto":
		return FixModeAuto, nil
	default:
		return 0, fmt.Errorf("invalid fix mode: %q", mode)
	}
}
