package media

import (
	"strconv"
	"strings"
	"sync"
)

// Object holds the property bag of a single media producer. Properties are
// untyped strings underneath, like the framework stores them; typed accessors
// parse on demand. All methods are safe for concurrent use, and Update applies
// a multi-property mutation as a single observable step.
type Object struct {
	mu    sync.RWMutex
	props map[string]string
}

// NewObject builds an Object from an initial property map. The map is copied;
// the caller keeps ownership of its argument.
func NewObject(props map[string]string) *Object {
	o := &Object{props: make(map[string]string, len(props))}
	for k, v := range props {
		o.props[k] = v
	}
	return o
}

// Valid reports whether the object refers to loadable media. An object with no
// resource cannot be probed, hashed, or proxied.
func (o *Object) Valid() bool {
	if o == nil {
		return false
	}
	return o.Get(PropResource) != ""
}

// Get returns the property value, or "" when unset.
func (o *Object) Get(key string) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.props[key]
}

// GetInt returns the property parsed as an integer. Missing or unparsable
// values read as zero, matching how the framework treats numeric properties.
func (o *Object) GetInt(key string) int {
	v := strings.TrimSpace(o.Get(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// GetFloat returns the property parsed as a float. Missing or unparsable
// values read as zero.
func (o *Object) GetFloat(key string) float64 {
	v := strings.TrimSpace(o.Get(key))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// Has reports whether the property is present, regardless of its value.
func (o *Object) Has(key string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.props[key]
	return ok
}

// Set stores a property value.
func (o *Object) Set(key, value string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.props[key] = value
}

// SetInt stores an integer property.
func (o *Object) SetInt(key string, value int) {
	o.Set(key, strconv.Itoa(value))
}

// Delete removes a property.
func (o *Object) Delete(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.props, key)
}

// Update applies fn to the property map under the write lock, so readers see
// either none or all of the mutation. Used when flipping a producer between
// its original and proxy resources, where a torn read would pair the wrong
// resource with the wrong marker.
func (o *Object) Update(fn func(props map[string]string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.props)
}

// Snapshot returns a copy of the property map.
func (o *Object) Snapshot() map[string]string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]string, len(o.props))
	for k, v := range o.props {
		out[k] = v
	}
	return out
}
