package fleet

import "tidewatch-sim/internal/tide"

// StateWriter handles periodic fleet aggregate rows.
type StateWriter interface {
	WriteFleetState(tide.FleetStateRow) error
}
