package properties

// Sink receives changed properties. It is the only place bytes are produced.
type Sink interface {
	Emit(id uint16, v Value)
}

type SinkFunc func(id uint16, v Value)

func (f SinkFunc) Emit(id uint16, v Value) { f(id, v) }

// Discard drops everything it receives.
var Discard Sink = SinkFunc(func(uint16, Value) {})

// Callbacks splits emitted values into the two wire forms: numbers, with
// integers widened to float32, and text.
type Callbacks struct {
	Float  func(id uint16, v float32)
	String func(id uint16, v string)
}

func (c Callbacks) Emit(id uint16, v Value) {
	if v.Kind() == KindString {
		if c.String != nil {
			c.String(id, v.Text())
		}
		return
	}
	if c.Float != nil {
		c.Float(id, v.Wire())
	}
}

type multiSink []Sink

func (m multiSink) Emit(id uint16, v Value) {
	for _, s := range m {
		s.Emit(id, v)
	}
}

// Multi returns a sink that forwards every emission to each of sinks in order.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}
