package properties

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
)

type base struct {
	Level uint8 `prop:"10"`
}

type monster struct {
	base
	props Values

	Name   string  `prop:"11"`
	Hp     int32   `prop:"12"`
	Speed  float64 `prop:"13,calculated"`
	hidden int16   `prop:"14"`
	Skip   string
}

func (m *monster) PropertyValues() *Values                   { return &m.props }
func (m *monster) DeclareProperties(d *Declaration[*monster]) { d.Tagged() }

func TestTaggedDiscovery(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()
	tbl, err := Lookup(reg, &monster{})
	is.NoErr(err)

	is.Equal(tbl.IDs(), []uint16{10, 11, 12, 13, 14})
	for id, want := range map[uint16]Kind{10: KindInteger, 11: KindString, 12: KindInteger, 13: KindFloat, 14: KindInteger} {
		k, ok := tbl.Kind(id)
		is.True(ok)
		is.Equal(k, want)
	}
	is.True(tbl.Calculated(13))

	m := &monster{base: base{Level: 3}, Name: "Hanaming", Hp: 40, Speed: 1.5, hidden: -2}
	rec := &recorder{}
	n, err := Sync(reg, m, nil, rec)
	is.NoErr(err)
	is.Equal(n, 5)
	is.Equal(rec.got[0].Wire, float32(3))
	is.Equal(rec.got[1].Text, "Hanaming")
	is.Equal(rec.got[3].Wire, float32(1.5))
	is.Equal(rec.got[4].Wire, float32(-2))
}

type badShape struct {
	props Values
	Dead  bool    `prop:"1"`
	Tags  []int32 `prop:"2"`
}

func (b *badShape) PropertyValues() *Values                    { return &b.props }
func (b *badShape) DeclareProperties(d *Declaration[*badShape]) { d.Tagged() }

func TestTaggedUnsupportedShapeIsFatalForType(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	_, err := Lookup(reg, &badShape{})
	is.True(errors.Is(err, ErrUnsupportedShape))

	// the failure sticks to the type
	_, err = Sync(reg, &badShape{}, nil, Discard)
	is.True(errors.Is(err, ErrUnsupportedShape))

	_, ok := reg.Schema(reflectTypeOf[*badShape]())
	is.True(!ok)
}

type wide struct {
	props Values
	Gold  int64  `prop:"1"`
	Exp   int    `prop:"2"`
	Zeny  uint32 `prop:"3"`
}

func (w *wide) PropertyValues() *Values                { return &w.props }
func (w *wide) DeclareProperties(d *Declaration[*wide]) { d.Tagged() }

func TestTaggedWideIntegersSaturate(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	w := &wide{Gold: math.MaxInt64, Exp: math.MinInt32 - 1, Zeny: 1234}
	rec := &recorder{}
	n, err := Sync(reg, w, nil, rec)
	is.NoErr(err)
	is.Equal(n, 3)

	tbl, err := Lookup(reg, w)
	is.NoErr(err)
	for _, id := range tbl.IDs() {
		k, _ := tbl.Kind(id)
		is.Equal(k, KindInteger)
	}
	is.Equal(w.props.Get(1, KindInteger).Int(), int32(math.MaxInt32))
	is.Equal(w.props.Get(2, KindInteger).Int(), int32(math.MinInt32))
	is.Equal(w.props.Get(3, KindInteger).Int(), int32(1234))
}

type stats struct {
	Str int32 `prop:"1"`
}

type summon struct {
	props Values
	*stats
	Hp int32 `prop:"2"`
}

func (s *summon) PropertyValues() *Values                  { return &s.props }
func (s *summon) DeclareProperties(d *Declaration[*summon]) { d.Tagged() }

func TestTaggedEmbeddedPointerIsRejected(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	// stats is nil; reading Str would dereference it
	n, err := Sync(reg, &summon{Hp: 9}, nil, Discard)
	is.True(errors.Is(err, ErrUnsupportedShape))
	is.Equal(n, 0)

	var pe *PropertyError
	is.True(errors.As(err, &pe))
	is.Equal(pe.Field, "Str")

	_, err = Lookup(reg, &summon{stats: &stats{Str: 4}})
	is.True(errors.Is(err, ErrUnsupportedShape))
}

type badTag struct {
	props Values
	Hp    int32 `prop:"hp"`
}

func (b *badTag) PropertyValues() *Values                  { return &b.props }
func (b *badTag) DeclareProperties(d *Declaration[*badTag]) { d.Tagged() }

func TestTaggedInvalidTag(t *testing.T) {
	is := is.New(t)
	_, err := Lookup(NewRegistry(), &badTag{})
	is.True(err != nil)

	var pe *PropertyError
	is.True(errors.As(err, &pe))
	is.Equal(pe.Field, "Hp")
}

func TestParseTag(t *testing.T) {
	for _, tc := range []struct {
		tag     string
		id      uint16
		opts    Options
		wantErr bool
	}{
		{tag: "7", id: 7},
		{tag: "7,calculated", id: 7, opts: Calculated},
		{tag: " 7 , calculated ", id: 7, opts: Calculated},
		{tag: "70000", wantErr: true},
		{tag: "7,cached", wantErr: true},
	} {
		id, opts, err := parseTag(tc.tag)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTag(%q): expected error", tc.tag)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTag(%q): unexpected error: %v", tc.tag, err)
			continue
		}
		if id != tc.id || opts != tc.opts {
			t.Errorf("parseTag(%q) = %d, %v, want %d, %v", tc.tag, id, opts, tc.id, tc.opts)
		}
	}
}

func TestRegistrySchema(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	_, ok := reg.Schema(reflectTypeOf[*monster]())
	is.True(!ok) // not built yet

	_, err := Lookup(reg, &monster{})
	is.NoErr(err)

	s, ok := reg.Schema(reflectTypeOf[*monster]())
	is.True(ok)
	is.Equal(s.Name(), "*properties.monster")
	opts, ok := s.Options(13)
	is.True(ok)
	is.True(opts.Has(Calculated))
}
