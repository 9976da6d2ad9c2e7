package calibration

import "sort"

// Cell addresses one joint bucket: skill, historical and last-N model buckets
type Cell [3]int

// CellCount is a populated joint bucket
type CellCount struct {
	Cell  Cell   `json:"cell"`
	Count uint64 `json:"count"`
}

// JointHistogram cross-tabulates the favored bucket of all three models per game.
// Storage is sparse; only populated cells are kept.
type JointHistogram struct {
	dims  Cell
	cells map[Cell]uint64
	total uint64
}

// NewJointHistogram creates a joint histogram for the given per-model resolutions
func NewJointHistogram(skill, historical, window int) *JointHistogram {
	return &JointHistogram{
		dims:  Cell{skill + 1, historical + 1, window + 1},
		cells: make(map[Cell]uint64),
	}
}

// Dims returns the bucket count along each axis
func (j *JointHistogram) Dims() Cell {
	return j.dims
}

// Add increments one cell; indexes are clamped into range
func (j *JointHistogram) Add(skill, historical, window int) {
	cell := Cell{clamp(skill, j.dims[0]), clamp(historical, j.dims[1]), clamp(window, j.dims[2])}
	j.cells[cell]++
	j.total++
}

func clamp(idx, size int) int {
	if idx < 0 {
		return 0
	}
	if idx >= size {
		return size - 1
	}
	return idx
}

// Count returns the count at a cell
func (j *JointHistogram) Count(skill, historical, window int) uint64 {
	return j.cells[Cell{skill, historical, window}]
}

// Total returns the number of games recorded
func (j *JointHistogram) Total() uint64 {
	return j.total
}

// Cells returns the populated cells in index order
func (j *JointHistogram) Cells() []CellCount {
	out := make([]CellCount, 0, len(j.cells))
	for cell, count := range j.cells {
		out = append(out, CellCount{Cell: cell, Count: count})
	}
	sort.Slice(out, func(a, b int) bool {
		ca, cb := out[a].Cell, out[b].Cell
		for i := 0; i < 3; i++ {
			if ca[i] != cb[i] {
				return ca[i] < cb[i]
			}
		}
		return false
	})
	return out
}

// Reset clears all cells
func (j *JointHistogram) Reset() {
	j.cells = make(map[Cell]uint64)
	j.total = 0
}

// Clone returns an independent copy
func (j *JointHistogram) Clone() *JointHistogram {
	cp := &JointHistogram{dims: j.dims, cells: make(map[Cell]uint64, len(j.cells)), total: j.total}
	for cell, count := range j.cells {
		cp.cells[cell] = count
	}
	return cp
}
