package vm

// Frame is an ordered mapping from binding name to Value.
//
// Frames have no parent chain. A call runs against a Clone of the caller's
// frame, so rebinding a name inside the callee never reaches the caller.
// Values are never mutated in place, which makes the shallow copy safe.
type Frame struct {
	names  []string
	values map[string]Value
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{values: make(map[string]Value)}
}

// Get retrieves a binding by exact name.
//
// Parameters:
//   - name: The binding name to look up
//
// Returns:
//   - Value: The bound value
//   - bool: true if the name is bound, false otherwise
func (f *Frame) Get(name string) (Value, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Set binds name to value. A new name is appended to the frame's order;
// rebinding an existing name keeps its position.
//
// Parameters:
//   - name: The binding name
//   - value: The value to bind
func (f *Frame) Set(name string, value Value) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Has reports whether name is bound.
func (f *Frame) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// Delete removes a binding.
//
// Returns:
//   - bool: true if the binding was removed, false if it didn't exist
func (f *Frame) Delete(name string) bool {
	if _, ok := f.values[name]; !ok {
		return false
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i:i], f.names[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the bound names in binding order.
func (f *Frame) Keys() []string {
	keys := make([]string, len(f.names))
	copy(keys, f.names)
	return keys
}

// Len returns the number of bindings.
func (f *Frame) Len() int {
	return len(f.names)
}

// Clone returns an independent copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		names:  make([]string, len(f.names)),
		values: make(map[string]Value, len(f.values)),
	}
	copy(c.names, f.names)
	for k, v := range f.values {
		c.values[k] = v
	}
	return c
}

// Merge copies bindings from src into f. With no names every binding of src
// is copied; otherwise only the named ones. It returns the first requested
// name that src does not bind.
//
// Parameters:
//   - src: The frame to copy from
//   - names: The names to copy; all bindings when empty
//
// Returns:
//   - string: The first missing name, "" when every name was found
//   - bool: true if every requested name was found
func (f *Frame) Merge(src *Frame, names ...string) (string, bool) {
	if len(names) == 0 {
		for _, n := range src.names {
			f.Set(n, src.values[n])
		}
		return "", true
	}

	for _, n := range names {
		if _, ok := src.values[n]; !ok {
			return n, false
		}
	}
	for _, n := range names {
		f.Set(n, src.values[n])
	}
	return "", true
}
