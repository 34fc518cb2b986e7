package internal

// Scope resolves names for one run: loop locals first, innermost frame
// outwards, then the caller's data binding. The data map is only read.
type Scope struct {
	parent *Scope
	vars   map[string]any
	data   map[string]any
}

// NewScope creates the root scope of a run
func NewScope(data map[string]any) *Scope {
	return &Scope{data: data}
}

// Child creates a frame for loop bindings
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, vars: make(map[string]any, 2), data: s.data}
}

// Set binds name in this frame
func (s *Scope) Set(name string, value any) {
	if s.vars == nil {
		s.vars = make(map[string]any, 2)
	}
	s.vars[name] = value
}

// Lookup resolves a top-level name
func (s *Scope) Lookup(name string) (any, bool) {
	for f := s; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	v, ok := s.data[name]
	return v, ok
}

// Flatten returns every visible binding, locals shadowing data
func (s *Scope) Flatten() map[string]any {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	frames := make([]*Scope, 0, 4)
	for f := s; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	for i := len(frames) - 1; i >= 0; i-- {
		for k, v := range frames[i].vars {
			out[k] = v
		}
	}
	return out
}
