package checkers

// Move is a complete turn: a single step, or a whole capture chain. Path holds every
// landing square in order and excludes Origin. For captures, Captured[i] is the
// square jumped on the way to Path[i].
type Move struct {
	Origin   Square   `json:"origin"`
	Path     []Square `json:"path"`
	Captured []Square `json:"captured,omitempty"`
	Promotes bool     `json:"promotes,omitempty"`
}

func (m Move) IsCapture() bool { return len(m.Captured) > 0 }

// Destination is the final landing square. A move with no path stays on Origin.
func (m Move) Destination() Square {
	if len(m.Path) == 0 {
		return m.Origin
	}
	return m.Path[len(m.Path)-1]
}

// SameRoute reports whether both moves start on the same square and visit the same
// landing squares. Captures and promotion follow from the route.
func (m Move) SameRoute(o Move) bool {
	if m.Origin != o.Origin || len(m.Path) != len(o.Path) {
		return false
	}
	for i := range m.Path {
		if m.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// startsRoute reports whether m's route is a strict prefix of o's.
func (m Move) startsRoute(o Move) bool {
	if m.Origin != o.Origin || len(m.Path) >= len(o.Path) {
		return false
	}
	for i := range m.Path {
		if m.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

func (m Move) clone() Move {
	out := m
	out.Path = append([]Square(nil), m.Path...)
	out.Captured = append([]Square(nil), m.Captured...)
	return out
}

func (m Move) String() string { return EncodeMove(m) }

// isStep reports whether m looks like a one-square diagonal step.
func (m Move) isStep() bool {
	if len(m.Path) != 1 {
		return false
	}
	dr, dc := m.Path[0].Row-m.Origin.Row, m.Path[0].Col-m.Origin.Col
	return abs(dr) == 1 && abs(dc) == 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
