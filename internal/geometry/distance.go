// Package geometry computes technician-to-rack travel distances for the
// assignment engine. Distances are weighted 3D Euclidean: the Z axis crosses
// floors, so it is scaled up to reflect the extra cost of vertical travel.
package geometry

import (
	"math"

	"fieldops/internal/model"
)

// DefaultFloorWeight scales the Z axis when no override is configured.
const DefaultFloorWeight = 1.2

// Distance returns the floor-weighted distance between two locations,
// rounded to the nearest integer unit for the engine's cost arithmetic.
func Distance(a, b model.Location, floorWeight float64) int64 {
	if floorWeight <= 0 {
		floorWeight = DefaultFloorWeight
	}
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := (a.Z - b.Z) * floorWeight
	return int64(math.Round(math.Sqrt(dx*dx + dy*dy + dz*dz)))
}

// Matrix builds the technician x rack distance matrix, rows in technician
// order and columns in rack order, the shape the engine expects.
func Matrix(technicians []model.Technician, racks []model.Location, floorWeight float64) [][]int64 {
	out := make([][]int64, len(technicians))
	for i, tech := range technicians {
		row := make([]int64, len(racks))
		for j, r := range racks {
			row[j] = Distance(tech.Location, r, floorWeight)
		}
		out[i] = row
	}
	return out
}
