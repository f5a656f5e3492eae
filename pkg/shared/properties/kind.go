package properties

import "fmt"

// Kind describes how a property value is read and encoded.
type Kind uint8

const (
	KindInteger Kind = iota + 1
	KindFloat
	KindString
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Options is a bitset of per-property flags.
type Options uint8

const (
	// Calculated marks a property computed at read time rather than stored.
	// The synchronizer ignores it; persistence uses it to skip the property.
	Calculated Options = 1 << iota
)

// Has reports whether all bits of o are set.
func (opts Options) Has(o Options) bool {
	return opts&o == o
}

func mergeOptions(opts []Options) Options {
	var merged Options
	for _, o := range opts {
		merged |= o
	}
	return merged
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "integer":
		return KindInteger, nil
	case "float":
		return KindFloat, nil
	case "string":
		return KindString, nil
	}
	return 0, fmt.Errorf("unknown property kind %q", s)
}
