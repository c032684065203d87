package hostedpay

import "net/url"

// Fields is a flat view over the gateway's form parameters. Lookups on keys the
// gateway did not send yield the empty string, which is exactly what the
// signature recomputation needs: a missing field and an empty field produce the
// same digest.
type Fields map[string]string

// Get returns the value for key, or "" when absent.
func (f Fields) Get(key string) string {
	if f == nil {
		return ""
	}
	return f[key]
}

// Set stores a value, allocating on first use.
func (f *Fields) Set(key, value string) {
	if *f == nil {
		*f = Fields{}
	}
	(*f)[key] = value
}

// FromForm flattens parsed form values, keeping the first value per key the way
// the gateway sends them.
func FromForm(values url.Values) Fields {
	f := make(Fields, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			f[key] = vals[0]
		}
	}
	return f
}
