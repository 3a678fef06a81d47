package sqlkit

import (
	"database/sql"
	"fmt"
	"hash/fnv"
	"reflect"
	"strings"
	"sync"
	"time"
)

// mapper owns the scan-plan caches shared by Get/Query and friends.
// The package-level instance is created lazily; tests may build their own.
type mapper struct {
	plans  sync.Map // planKey -> *scanPlan
	fields sync.Map // reflect.Type -> map[string][]int
}

var (
	sharedMapper *mapper
	mapperOnce   sync.Once
)

func getMapper() *mapper {
	mapperOnce.Do(func() { sharedMapper = &mapper{} })
	return sharedMapper
}

var (
	scannerType  = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType     = reflect.TypeOf(time.Time{})
	rawBytesType = reflect.TypeOf(sql.RawBytes{})
	bytesType    = reflect.TypeOf([]byte(nil))
	stringType   = reflect.TypeOf("")
	int64Type    = reflect.TypeOf(int64(0))
	uint64Type   = reflect.TypeOf(uint64(0))
	float64Type  = reflect.TypeOf(float64(0))
)

// scanRow scans the *current row* of rows into a fresh T using m's caches.
// It is the hot path shared by every query helper in the package.
func scanRow[T any](m *mapper, rows *sql.Rows) (T, error) {
	var zero T

	cols, err := rows.Columns()
	if err != nil {
		return zero, err
	}
	if len(cols) == 0 {
		return zero, fmt.Errorf("sqlkit: query returned zero columns")
	}
	for i := range cols {
		cols[i] = normalizeColumn(cols[i])
	}

	rt := reflect.TypeOf((*T)(nil)).Elem()
	pl, err := m.plan(rt, cols)
	if err != nil {
		return zero, err
	}

	rv := reflect.New(rt) // *T
	dests, finish := pl.targets(rv)
	if err := rows.Scan(dests...); err != nil {
		return zero, err
	}
	if err := finish(); err != nil {
		return zero, err
	}
	return rv.Elem().Interface().(T), nil
}

// ---------------- plans ----------------

type planKey struct {
	rt    reflect.Type
	hash  uint64 // FNV-1a over normalized column names
	ncols int
}

type planKind uint8

const (
	planStruct  planKind = iota // map columns onto struct fields
	planSelf                    // scan the single column straight into *T
	planConvert                 // scan into a temporary, then convert into T
)

type scanPlan struct {
	kind planKind
	cols []colBinding // planStruct only
	conv *typeConv    // planConvert only
}

type colKind uint8

const (
	colDiscard colKind = iota // unmapped column, sunk into RawBytes
	colAddr                   // scan directly into the field's address
	colConvert                // scan into a temporary, convert into the field
)

type colBinding struct {
	kind colKind
	path []int
	conv *typeConv
}

// typeConv scans into a temporary of type tmp, then assign moves the value
// into the destination with whatever conversion the destination needs.
type typeConv struct {
	tmp    reflect.Type
	assign func(dst, tmp reflect.Value) error
}

func (m *mapper) plan(rt reflect.Type, cols []string) (*scanPlan, error) {
	key := planKey{rt: rt, hash: hashColumns(cols), ncols: len(cols)}
	if v, ok := m.plans.Load(key); ok {
		return v.(*scanPlan), nil
	}
	p, err := m.buildPlan(rt, cols)
	if err != nil {
		return nil, err
	}
	m.plans.Store(key, p)
	return p, nil
}

func (m *mapper) buildPlan(rt reflect.Type, cols []string) (*scanPlan, error) {
	// Whole-value destinations: Scanner implementations, time.Time, and
	// non-struct types all consume exactly one column.
	if implementsScanner(rt) || rt == timeType || !isStructType(rt) {
		if len(cols) != 1 {
			return nil, fmt.Errorf("sqlkit: cannot map %d columns into %s; use a struct", len(cols), rt)
		}
		if !implementsScanner(rt) && rt != timeType {
			if conv, ok := conversion(rt); ok {
				return &scanPlan{kind: planConvert, conv: conv}, nil
			}
		}
		return &scanPlan{kind: planSelf}, nil
	}

	idx := m.fieldIndex(rt)
	bindings := make([]colBinding, len(cols))
	for i, c := range cols {
		path, ok := idx[c]
		if !ok {
			bindings[i] = colBinding{kind: colDiscard}
			continue
		}
		bindings[i] = fieldBinding(rt, path)
	}
	return &scanPlan{kind: planStruct, cols: bindings}, nil
}

// targets allocates scan destinations for one row. rv must be a *T.
// finish applies deferred conversions after rows.Scan succeeds.
func (p *scanPlan) targets(rv reflect.Value) (dests []any, finish func() error) {
	noop := func() error { return nil }

	switch p.kind {
	case planSelf:
		return []any{rv.Interface()}, noop
	case planConvert:
		tmp := reflect.New(p.conv.tmp).Elem()
		return []any{tmp.Addr().Interface()}, func() error {
			return p.conv.assign(rv.Elem(), tmp)
		}
	}

	root := rv.Elem()
	dests = make([]any, len(p.cols))
	var pending []func() error
	var sink sql.RawBytes // shared by every discarded column

	for i, b := range p.cols {
		switch b.kind {
		case colAddr:
			dests[i] = fieldAlloc(root, b.path).Addr().Interface()
		case colConvert:
			tmp := reflect.New(b.conv.tmp).Elem()
			dests[i] = tmp.Addr().Interface()
			b := b
			pending = append(pending, func() error {
				return b.conv.assign(fieldAlloc(root, b.path), tmp)
			})
		default:
			dests[i] = &sink
		}
	}

	if len(pending) == 0 {
		return dests, noop
	}
	return dests, func() error {
		for _, f := range pending {
			if err := f(); err != nil {
				return err
			}
		}
		return nil
	}
}

// ---------------- field indexing ----------------

// fieldIndex maps lower-cased column names to field index paths for rt,
// honoring `db` tags: `db:"-"` omits, `db:",inline"` flattens nested structs,
// and anonymous untagged structs flatten automatically.
func (m *mapper) fieldIndex(rt reflect.Type) map[string][]int {
	if v, ok := m.fields.Load(rt); ok {
		return v.(map[string][]int)
	}
	idx := buildFieldIndex(rt)
	m.fields.Store(rt, idx)
	return idx
}

func buildFieldIndex(rt reflect.Type) map[string][]int {
	idx := make(map[string][]int)

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		t = derefType(t)
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous {
				continue // unexported
			}
			name, inline, omit := parseDBTag(sf.Tag.Get("db"))
			if omit {
				continue
			}
			path := append(append([]int(nil), base...), i)
			if inline || (sf.Anonymous && sf.Tag.Get("db") == "") {
				if derefType(sf.Type).Kind() == reflect.Struct && derefType(sf.Type) != timeType {
					walk(sf.Type, path)
					continue
				}
			}
			if name == "" {
				name = sf.Name
			}
			lc := strings.ToLower(name)
			if _, taken := idx[lc]; !taken {
				idx[lc] = path
			}
		}
	}
	walk(rt, nil)
	return idx
}

// parseDBTag understands "-", "col", ",inline", "col,inline", "inline,col".
func parseDBTag(tag string) (name string, inline, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	for _, part := range strings.Split(tag, ",") {
		switch {
		case part == "inline":
			inline = true
		case part != "" && name == "":
			name = part
		}
	}
	return name, inline, false
}

// ---------------- per-field binding ----------------

func fieldBinding(rt reflect.Type, path []int) colBinding {
	ft := fieldTypeAt(rt, path)

	// A field with its own Scanner always receives the driver value directly.
	if implementsScanner(ft) {
		return colBinding{kind: colAddr, path: path}
	}
	if conv, ok := conversion(ft); ok {
		return colBinding{kind: colConvert, path: path, conv: conv}
	}
	// Direct scan; database/sql performs its own conversions if needed.
	return colBinding{kind: colAddr, path: path}
}

// conversion picks a temporary scan type and an assignment for destinations
// database/sql cannot (or should not) fill directly:
//
//   - builtin string scans via []byte so text and byte-string drivers both work
//   - numeric destinations scan via int64/uint64/float64 and narrow afterwards
//   - named primitive types, with at most one pointer layer, convert afterwards
func conversion(ft reflect.Type) (*typeConv, bool) {
	if ft == timeType || ft == rawBytesType {
		return nil, false
	}

	switch ft.Kind() {
	case reflect.String:
		if ft == stringType {
			return &typeConv{tmp: bytesType, assign: func(dst, tmp reflect.Value) error {
				if tmp.IsNil() {
					dst.SetString("")
					return nil
				}
				dst.SetString(string(tmp.Bytes()))
				return nil
			}}, true
		}
		return &typeConv{tmp: stringType, assign: func(dst, tmp reflect.Value) error {
			dst.SetString(tmp.String())
			return nil
		}}, true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &typeConv{tmp: int64Type, assign: func(dst, tmp reflect.Value) error {
			dst.SetInt(tmp.Int())
			return nil
		}}, true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &typeConv{tmp: uint64Type, assign: func(dst, tmp reflect.Value) error {
			dst.SetUint(tmp.Uint())
			return nil
		}}, true

	case reflect.Float32, reflect.Float64:
		return &typeConv{tmp: float64Type, assign: func(dst, tmp reflect.Value) error {
			dst.SetFloat(tmp.Float())
			return nil
		}}, true

	case reflect.Pointer:
		elem := ft.Elem()
		if elem.Kind() == reflect.Pointer || derefType(elem).Kind() == reflect.Struct {
			return nil, false
		}
		inner, ok := conversion(elem)
		if !ok {
			return nil, false
		}
		return &typeConv{tmp: inner.tmp, assign: func(dst, tmp reflect.Value) error {
			val := reflect.New(elem)
			if err := inner.assign(val.Elem(), tmp); err != nil {
				return err
			}
			dst.Set(val.Convert(ft))
			return nil
		}}, true
	}

	return nil, false
}

// ---------------- reflection helpers ----------------

func isStructType(t reflect.Type) bool { return derefType(t).Kind() == reflect.Struct }

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func implementsScanner(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(scannerType)
}

func fieldTypeAt(root reflect.Type, path []int) reflect.Type {
	t := root
	for _, i := range path {
		t = derefType(t).Field(i).Type
	}
	return t
}

// fieldAlloc walks path from root, allocating nil pointers along the way so
// the final field is addressable.
func fieldAlloc(root reflect.Value, path []int) reflect.Value {
	v := root
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		v.Set(reflect.New(v.Type().Elem()))
	}
	return v
}

// ---------------- column normalization ----------------

func hashColumns(cols []string) uint64 {
	h := fnv.New64a()
	for _, c := range cols {
		_, _ = h.Write([]byte(c))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// normalizeColumn strips one layer of identifier quoting and lower-cases the
// name, so `"ID"`, `ID`, and [id] all match a field tagged db:"id".
func normalizeColumn(s string) string {
	if l := len(s); l >= 2 {
		switch {
		case s[0] == '"' && s[l-1] == '"',
			s[0] == '`' && s[l-1] == '`',
			s[0] == '[' && s[l-1] == ']':
			s = s[1 : l-1]
		}
	}
	return strings.ToLower(s)
}
