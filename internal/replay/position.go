package replay

// Position is an opaque, totally ordered coordinate on the trace timeline.
//
// Positions are produced by the replay engine; the coverage pipeline only
// compares them. Ordering follows the natural uint64 order.
type Position uint64

const (
	// PositionInvalid is the zero value; no real trace event carries it.
	PositionInvalid Position = 0

	// PositionMin is the smallest position a trace event can carry.
	PositionMin Position = 1

	// PositionMax sorts after every real trace position. Used as the
	// end-of-trace watermark when a driver cannot report its lifetime.
	PositionMax Position = ^Position(0)
)

// Valid reports whether p refers to a real point on the timeline.
func (p Position) Valid() bool {
	return p != PositionInvalid
}

// Lifetime is the overall first/last position range of a trace.
type Lifetime struct {
	First Position
	Last  Position
}
