package api

import (
	"fmt"

	"fieldops/internal/model"
)

func validateFloorUpdate(req *model.FloorUpdate) error {
	if len(req.RackLocations) != 0 && len(req.RackLocations) != len(req.RackIDs) {
		return fmt.Errorf("rackLocations length %d does not match rackIds length %d", len(req.RackLocations), len(req.RackIDs))
	}
	if len(req.Distances) == 0 {
		return nil
	}
	if len(req.Distances) != len(req.Technicians) {
		return fmt.Errorf("distances has %d rows for %d technicians", len(req.Distances), len(req.Technicians))
	}
	for i, row := range req.Distances {
		if len(row) != len(req.RackIDs) {
			return fmt.Errorf("distances row %d has %d columns for %d racks", i, len(row), len(req.RackIDs))
		}
		for j, d := range row {
			if d < 0 {
				return fmt.Errorf("distances[%d][%d] is negative", i, j)
			}
		}
	}
	return nil
}

func validateSubscription(req *model.SubscriptionRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url required")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("at least one event required")
	}
	return nil
}
