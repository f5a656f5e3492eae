package properties

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// TagName is the struct tag read by Declaration.Tagged.
const TagName = "prop"

// Descriptor describes one synchronizable attribute of entity type E. It is
// immutable once its table is built.
type Descriptor[E any] struct {
	ID      uint16
	Kind    Kind
	Options Options
	// Field is the struct field a tagged descriptor was discovered from.
	Field string

	read func(E) Value
}

// Read returns the current value of the attribute on e.
func (d Descriptor[E]) Read(e E) Value {
	return d.read(e)
}

// Declaration collects the descriptors of one entity type while its table is
// being built.
type Declaration[E any] struct {
	typeName string
	descs    []Descriptor[E]
	err      error
}

// Int declares an integer property read by read.
func (d *Declaration[E]) Int(id uint16, read func(E) int32, opts ...Options) {
	d.add(Descriptor[E]{ID: id, Kind: KindInteger, Options: mergeOptions(opts), read: func(e E) Value {
		return IntValue(read(e))
	}})
}

// Float declares a float property read by read.
func (d *Declaration[E]) Float(id uint16, read func(E) float32, opts ...Options) {
	d.add(Descriptor[E]{ID: id, Kind: KindFloat, Options: mergeOptions(opts), read: func(e E) Value {
		return FloatValue(read(e))
	}})
}

// String declares a text property read by read.
func (d *Declaration[E]) String(id uint16, read func(E) string, opts ...Options) {
	d.add(Descriptor[E]{ID: id, Kind: KindString, Options: mergeOptions(opts), read: func(e E) Value {
		return StringValue(read(e))
	}})
}

// Tagged declares every struct field of E carrying a `prop:"<id>[,calculated]"`
// tag. Field offsets are resolved here, once; reads never look fields up by
// name. A field whose type is not text, a whole number or a real number is
// reported as ErrUnsupportedShape and fails the whole type, as is a field
// promoted through an embedded pointer. Whole numbers are cached as int32;
// wider ones saturate at its limits.
func (d *Declaration[E]) Tagged() {
	t := reflect.TypeFor[E]()
	ptr := t.Kind() == reflect.Pointer
	if ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		d.fail(&PropertyError{Type: d.typeName, Err: fmt.Errorf("%w: %s is not a struct", ErrUnsupportedShape, t)})
		return
	}

	for _, f := range reflect.VisibleFields(t) {
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		id, opts, err := parseTag(tag)
		if err != nil {
			d.fail(&PropertyError{Type: d.typeName, Field: f.Name, Err: err})
			continue
		}
		kind, ok := kindOf(f.Type)
		if !ok {
			d.fail(&PropertyError{Type: d.typeName, ID: id, Field: f.Name, Err: fmt.Errorf("%w: %s", ErrUnsupportedShape, f.Type)})
			continue
		}
		if viaPointer(t, f.Index) {
			d.fail(&PropertyError{Type: d.typeName, ID: id, Field: f.Name, Err: fmt.Errorf("%w: promoted through embedded pointer", ErrUnsupportedShape)})
			continue
		}
		d.add(Descriptor[E]{
			ID:      id,
			Kind:    kind,
			Options: opts,
			Field:   f.Name,
			read:    fieldReader[E](f.Index, f.Type.Kind(), ptr),
		})
	}
}

func (d *Declaration[E]) add(desc Descriptor[E]) {
	d.descs = append(d.descs, desc)
}

func (d *Declaration[E]) fail(err error) {
	d.err = multierr.Append(d.err, err)
}

func parseTag(tag string) (uint16, Options, error) {
	parts := strings.Split(tag, ",")
	id, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid %s tag %q: %w", TagName, tag, err)
	}

	var opts Options
	for _, p := range parts[1:] {
		switch strings.TrimSpace(p) {
		case "calculated":
			opts |= Calculated
		case "":
		default:
			return 0, 0, fmt.Errorf("invalid %s tag %q: unknown option %q", TagName, tag, p)
		}
	}
	return uint16(id), opts, nil
}

func kindOf(t reflect.Type) (Kind, bool) {
	switch t.Kind() {
	case reflect.String:
		return KindString, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, true
	}
	return 0, false
}

// viaPointer reports whether reaching the field at index from t goes through
// an embedded pointer, which may be nil at read time.
func viaPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

func fieldReader[E any](index []int, kind reflect.Kind, ptr bool) func(E) Value {
	return func(e E) Value {
		v := reflect.ValueOf(e)
		if ptr {
			v = v.Elem()
		}
		f := v.FieldByIndex(index)
		switch kind {
		case reflect.String:
			return StringValue(f.String())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return IntValue(int32(min(f.Uint(), math.MaxInt32)))
		case reflect.Float32, reflect.Float64:
			return FloatValue(float32(f.Float()))
		default:
			return IntValue(int32(max(math.MinInt32, min(f.Int(), math.MaxInt32))))
		}
	}
}
