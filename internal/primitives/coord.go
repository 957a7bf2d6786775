package primitives

import "strconv"

// Coord addresses one cell of the N×N×N grid.
//
// Components outside [0, N) are valid input; Wrap folds them back into range
// the way a torus does, so -1 is N-1 and N is 0.
type Coord struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
	Z int32 `json:"z" yaml:"z"`
}

// C builds a Coord from plain ints. Components are narrowed to int32; use
// WrapInts for values that may fall outside that range.
func C(x, y, z int) Coord {
	return Coord{X: int32(x), Y: int32(y), Z: int32(z)}
}

// WrapInts folds plain ints into [0, n) before narrowing, so any int lands
// on the cell its true residue names.
func WrapInts(x, y, z int, n int32) Coord {
	return Coord{X: wrapInt(x, n), Y: wrapInt(y, n), Z: wrapInt(z, n)}
}

// Wrap folds every component into [0, n).
func (c Coord) Wrap(n int32) Coord {
	return Coord{X: wrap(c.X, n), Y: wrap(c.Y, n), Z: wrap(c.Z, n)}
}

// Add offsets c component-wise. The result is not wrapped.
func (c Coord) Add(dx, dy, dz int32) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

func (c Coord) String() string {
	buf := make([]byte, 0, 24)
	buf = append(buf, '(')
	buf = strconv.AppendInt(buf, int64(c.X), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(c.Y), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(c.Z), 10)
	buf = append(buf, ')')
	return string(buf)
}

func wrap(v, n int32) int32 {
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}

func wrapInt(v int, n int32) int32 {
	m := v % int(n)
	if m < 0 {
		m += int(n)
	}
	return int32(m)
}

// compareCoord orders coordinates lexicographically on (X, Y, Z).
func compareCoord(a, b Coord) int {
	switch {
	case a.X != b.X:
		return cmpInt32(a.X, b.X)
	case a.Y != b.Y:
		return cmpInt32(a.Y, b.Y)
	default:
		return cmpInt32(a.Z, b.Z)
	}
}

func cmpInt32(a, b int32) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
