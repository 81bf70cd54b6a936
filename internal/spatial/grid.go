// Package spatial implements the cell-grid proximity index for the
// simulation. Cell size approximates the typical query radius so a range
// query touches about nine cells. Accessed only from the game loop
// goroutine, so no locks.
package spatial

import "math"

// DefaultCellSize matches the typical interaction query radius.
const DefaultCellSize = 200.0

type CellKey struct {
	CX int32
	CY int32
}

// Entry is one entity position for bulk rebuilds.
type Entry struct {
	ID   string
	X, Y float64
}

// Grid maps cell keys to entity id sets and each id back to its last cell.
// Invariant: the two maps always agree. If last[id] == k then id is a
// member of cells[k], and every member of cells[k] maps back to k.
type Grid struct {
	cellSize float64
	cells    map[CellKey]map[string]struct{}
	last     map[string]CellKey
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[CellKey]map[string]struct{}),
		last:     make(map[string]CellKey),
	}
}

func (g *Grid) keyFor(x, y float64) CellKey {
	return CellKey{
		CX: int32(math.Floor(x / g.cellSize)),
		CY: int32(math.Floor(y / g.cellSize)),
	}
}

// Insert places an id at (x, y). Inserting an id that is already present
// moves it, keeping the bidirectional invariant.
func (g *Grid) Insert(id string, x, y float64) {
	if _, ok := g.last[id]; ok {
		g.Remove(id)
	}
	k := g.keyFor(x, y)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[string]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.last[id] = k
}

// Remove deletes an id and prunes its cell immediately if empty, bounding
// memory to currently occupied cells.
func (g *Grid) Remove(id string) {
	k, ok := g.last[id]
	if !ok {
		return
	}
	delete(g.last, id)
	cell := g.cells[k]
	if cell == nil {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

// Update moves an id to (x, y). When the destination cell equals the source
// cell this is a no-op. Most entities stay within a cell across most ticks,
// so this short-circuit carries the index's performance.
func (g *Grid) Update(id string, x, y float64) {
	old, ok := g.last[id]
	if !ok {
		g.Insert(id, x, y)
		return
	}
	if g.keyFor(x, y) == old {
		return
	}
	g.Remove(id)
	g.Insert(id, x, y)
}

// Query returns the union of ids from all cells intersecting a square of
// side 2*ceil(rng/cellSize)+1 centered on the query cell. The result is a
// superset of the true circular range; callers apply the exact Euclidean
// filter themselves.
func (g *Grid) Query(x, y, rng float64) []string {
	if rng < 0 {
		rng = 0
	}
	center := g.keyFor(x, y)
	reach := int32(math.Ceil(rng / g.cellSize))
	var result []string
	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			k := CellKey{CX: center.CX + dx, CY: center.CY + dy}
			for id := range g.cells[k] {
				result = append(result, id)
			}
		}
	}
	return result
}

// Rebuild clears the grid and reinserts every entry in O(n). Bulk resets
// only; incremental movement goes through Update.
func (g *Grid) Rebuild(entries []Entry) {
	g.cells = make(map[CellKey]map[string]struct{}, len(g.cells))
	g.last = make(map[string]CellKey, len(entries))
	for _, e := range entries {
		g.Insert(e.ID, e.X, e.Y)
	}
}

// CellCount reports the number of occupied cells.
func (g *Grid) CellCount() int { return len(g.cells) }

// Len reports the number of indexed ids.
func (g *Grid) Len() int { return len(g.last) }

// CellOf returns the cell an id currently occupies.
func (g *Grid) CellOf(id string) (CellKey, bool) {
	k, ok := g.last[id]
	return k, ok
}
