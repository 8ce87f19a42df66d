package element

// Attr is a single attribute.
type Attr struct {
	Key string
	Val string
}

// Attrs is an ordered attribute list. Keys are unique when built through Set.
type Attrs []Attr

// A builds an Attrs from alternating keys and values.
func A(kv ...string) Attrs {
	var a Attrs
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i], kv[i+1])
	}
	return a
}

// Get returns the value of key.
func (a Attrs) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (a Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Set replaces the value of key in place or appends it.
func (a *Attrs) Set(key, val string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Val = val
			return
		}
	}
	*a = append(*a, Attr{Key: key, Val: val})
}

// Merge returns a copy of a with the attributes of other set on top of it.
func (a Attrs) Merge(other Attrs) Attrs {
	out := make(Attrs, len(a), len(a)+len(other))
	copy(out, a)
	for _, attr := range other {
		out.Set(attr.Key, attr.Val)
	}
	return out
}

// Keys returns the attribute names in order.
func (a Attrs) Keys() []string {
	keys := make([]string, len(a))
	for i, attr := range a {
		keys[i] = attr.Key
	}
	return keys
}
