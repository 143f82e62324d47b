package recovery

// Strategy decides what happens when a stage hits a recoverable error, such
// as an undefined control sequence.
type Strategy interface {
	OnError(ctx Context, err error, location Location) Action
}

type Location struct {
	Offset    int
	Line      int
	Column    int
	Component string
	// Name is the offending control sequence, when there is one.
	Name string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionFix
	ActionWarn
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	case ActionFix:
		return "fix"
	case ActionWarn:
		return "warn"
	}
	return "unknown"
}

type Context interface{ Done() <-chan struct{} }
