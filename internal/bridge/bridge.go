package bridge

// Event is a runtime-originated message: a command name plus positional
// arguments as decoded JSON values (strings and float64 numbers).
type Event struct {
	Name string
	Args []any
}

// Handler consumes one runtime event. Handlers run on the bridge read loop;
// anything slow moves itself onto a goroutine.
type Handler func(e Event)

// Bridge is the duplex channel to the embedded game runtime. Sends issued
// before the runtime reports loaded are dropped; sends after are assumed
// delivered.
type Bridge interface {
	Send(target, method string, arg any) error
	// On binds a handler to an event name. Binding a name twice is an
	// error: exactly one handler per name per bridge session.
	On(event string, h Handler) error
	Off(event string)
	Loaded() bool
}

// Arg helpers: runtime arguments arrive as JSON values, so numbers are
// float64 and everything else is stringified.

func (e Event) String(i int) string {
	if i >= len(e.Args) {
		return ""
	}
	if s, ok := e.Args[i].(string); ok {
		return s
	}
	return ""
}

func (e Event) Float(i int) float64 {
	if i >= len(e.Args) {
		return 0
	}
	switch v := e.Args[i].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (e Event) Int(i int) int {
	return int(e.Float(i))
}
