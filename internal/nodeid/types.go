package nodeid

// Shape classifies a spawner key.
type Shape int

const (
	// ShapeCallable is a plain identifier such as "Math.AddInt" or "adder".
	ShapeCallable Shape = iota
	// ShapeMember is an "owner:member" pair.
	ShapeMember
	// ShapeKindPath is a slash-separated class path.
	ShapeKindPath
)

func (s Shape) String() string {
	switch s {
	case ShapeMember:
		return "member"
	case ShapeKindPath:
		return "kind_path"
	default:
		return "callable"
	}
}

// Key is the structured form of a spawner key.
type Key struct {
	Raw   string
	Shape Shape
	// Owner and Member are set for ShapeMember keys.
	Owner  string
	Member string
	// Path holds the slash-separated segments of a ShapeKindPath key and
	// the dot-separated segments of a ShapeCallable key.
	Path []string
}
