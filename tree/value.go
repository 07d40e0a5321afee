package tree

import (
	"fmt"
	"sort"

	"github.com/t7a/emdtree/ndarray"
)

// Tag names the shape of a metadata value.  It is what gets stored
// next to the value, and decoding dispatches on it alone.
type Tag string

const (
	TagNone           Tag = "none"
	TagString         Tag = "string"
	TagBool           Tag = "bool"
	TagNumber         Tag = "number"
	TagArray          Tag = "array"
	TagTuple          Tag = "tuple"
	TagList           Tag = "list"
	TagTupleOfArrays  Tag = "tuple_of_arrays"
	TagListOfArrays   Tag = "list_of_arrays"
	TagTupleOfStrings Tag = "tuple_of_strings"
	TagListOfStrings  Tag = "list_of_strings"
	TagTupleOfTuples  Tag = "tuple_of_tuples"
	TagDict           Tag = "dict"
)

// Value is a metadata value.  The set of implementations is closed:
// None, Bool, String, Number, NDArray, NumberTuple, NumberList,
// StringTuple, StringList, ArrayTuple, ArrayList, TupleTuple and Map.
type Value interface {
	Tag() Tag
	isValue()
}

// None is the absent value.
type None struct{}

// Bool is a boolean.
type Bool bool

// String is a text value.
type String string

// Number is a scalar that keeps its Go numeric type.
type Number struct {
	A *ndarray.Array
}

// NDArray is an n-d array of any dtype.
type NDArray struct {
	A *ndarray.Array
}

// NumberTuple and NumberList are 1-d sequences of numbers of a single
// dtype.  They differ only in their tag.
type NumberTuple struct {
	A *ndarray.Array
}

type NumberList struct {
	A *ndarray.Array
}

// StringTuple and StringList are sequences of strings.
type StringTuple []string

type StringList []string

// ArrayTuple and ArrayList are sequences of arrays.
type ArrayTuple []*ndarray.Array

type ArrayList []*ndarray.Array

// TupleTuple is a tuple whose elements are Number or NumberTuple.
type TupleTuple []Value

// Map nests values under string keys.
type Map map[string]Value

func (None) Tag() Tag        { return TagNone }
func (Bool) Tag() Tag        { return TagBool }
func (String) Tag() Tag      { return TagString }
func (Number) Tag() Tag      { return TagNumber }
func (NDArray) Tag() Tag     { return TagArray }
func (NumberTuple) Tag() Tag { return TagTuple }
func (NumberList) Tag() Tag  { return TagList }
func (StringTuple) Tag() Tag { return TagTupleOfStrings }
func (StringList) Tag() Tag  { return TagListOfStrings }
func (ArrayTuple) Tag() Tag  { return TagTupleOfArrays }
func (ArrayList) Tag() Tag   { return TagListOfArrays }
func (TupleTuple) Tag() Tag  { return TagTupleOfTuples }
func (Map) Tag() Tag         { return TagDict }

func (None) isValue()        {}
func (Bool) isValue()        {}
func (String) isValue()      {}
func (Number) isValue()      {}
func (NDArray) isValue()     {}
func (NumberTuple) isValue() {}
func (NumberList) isValue()  {}
func (StringTuple) isValue() {}
func (StringList) isValue()  {}
func (ArrayTuple) isValue()  {}
func (ArrayList) isValue()   {}
func (TupleTuple) isValue()  {}
func (Map) isValue()         {}

// NumberOf wraps any Go numeric scalar.
func NumberOf(v interface{}) (n Number, err error) {
	switch v.(type) {
	case bool, string:
		return n, &CodecError{Reason: fmt.Sprintf("%T is not a number", v)}
	}
	a, err := ndarray.Scalar(v)
	if err != nil {
		return n, &CodecError{Reason: err.Error()}
	}
	return Number{A: a}, nil
}

// Int is an int64 Number.
func Int(v int64) Number {
	n, _ := NumberOf(v)
	return n
}

// Float is a float64 Number.
func Float(v float64) Number {
	n, _ := NumberOf(v)
	return n
}

// Interface returns the Go scalar inside n.
func (n Number) Interface() interface{} {
	if n.A == nil {
		return nil
	}
	return n.A.At(0)
}

func emptyFloat64() *ndarray.Array {
	a, _ := ndarray.Zeros(ndarray.Float64, 0)
	return a
}

func numbers(data interface{}) (a *ndarray.Array, err error) {
	a, err = ndarray.New(data)
	if err != nil {
		return nil, &CodecError{Reason: err.Error()}
	}
	if !a.Dtype.IsNumeric() {
		return nil, &CodecError{Reason: fmt.Sprintf("%s is not a numeric dtype", a.Dtype)}
	}
	return
}

// TupleOf builds a NumberTuple from a numeric Go slice.
func TupleOf(data interface{}) (NumberTuple, error) {
	a, err := numbers(data)
	return NumberTuple{A: a}, err
}

// ListOf builds a NumberList from a numeric Go slice.
func ListOf(data interface{}) (NumberList, error) {
	a, err := numbers(data)
	return NumberList{A: a}, err
}

// Ints is a NumberTuple of int64.
func Ints(v ...int64) NumberTuple {
	if v == nil {
		v = []int64{}
	}
	return NumberTuple{A: ndarray.MustNew(v)}
}

// Floats is a NumberList of float64.
func Floats(v ...float64) NumberList {
	if v == nil {
		v = []float64{}
	}
	return NumberList{A: ndarray.MustNew(v)}
}

// Elems returns the tuple data, an empty float64 array when unset.
func (t NumberTuple) Elems() *ndarray.Array {
	if t.A == nil {
		return emptyFloat64()
	}
	return t.A
}

// Elems returns the list data, an empty float64 array when unset.
func (l NumberList) Elems() *ndarray.Array {
	if l.A == nil {
		return emptyFloat64()
	}
	return l.A
}

// FromGo converts plain Go data into a Value: nil, bool, string, Go
// numbers, numeric slices (as lists), []string, *ndarray.Array,
// []*ndarray.Array and map[string]interface{}.  Values that are
// already a Value pass through.
func FromGo(v interface{}) (val Value, err error) {
	switch x := v.(type) {
	case nil:
		return None{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case []string:
		return StringList(x), nil
	case *ndarray.Array:
		return NDArray{A: x}, nil
	case []*ndarray.Array:
		return ArrayList(x), nil
	case map[string]interface{}:
		m := Map{}
		for k, e := range x {
			m[k], err = FromGo(e)
			if err != nil {
				return nil, &CodecError{Key: k, Reason: err.Error()}
			}
		}
		return m, nil
	case []interface{}:
		return nil, &CodecError{Reason: "heterogeneous lists are not supported"}
	}
	if n, err := NumberOf(v); err == nil {
		return n, nil
	}
	if l, err := ListOf(v); err == nil {
		return l, nil
	}
	return nil, &CodecError{Reason: fmt.Sprintf("unsupported value type %T", v)}
}

// Equal compares two values by tag and content.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Tag() != b.Tag() {
		return false
	}
	switch x := a.(type) {
	case None:
		return true
	case Bool:
		return x == b.(Bool)
	case String:
		return x == b.(String)
	case Number:
		return x.A.Equal(b.(Number).A)
	case NDArray:
		return x.A.Equal(b.(NDArray).A)
	case NumberTuple:
		return x.Elems().Equal(b.(NumberTuple).Elems())
	case NumberList:
		return x.Elems().Equal(b.(NumberList).Elems())
	case StringTuple:
		return equalStrings(x, b.(StringTuple))
	case StringList:
		return equalStrings(x, b.(StringList))
	case ArrayTuple:
		return equalArrays(x, b.(ArrayTuple))
	case ArrayList:
		return equalArrays(x, b.(ArrayList))
	case TupleTuple:
		y := b.(TupleTuple)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalArrays(a, b []*ndarray.Array) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// CopyValue returns an independent copy of v.
func CopyValue(v Value) Value {
	switch x := v.(type) {
	case Number:
		return Number{A: x.A.Copy()}
	case NDArray:
		return NDArray{A: x.A.Copy()}
	case NumberTuple:
		return NumberTuple{A: x.Elems().Copy()}
	case NumberList:
		return NumberList{A: x.Elems().Copy()}
	case StringTuple:
		return append(StringTuple{}, x...)
	case StringList:
		return append(StringList{}, x...)
	case ArrayTuple:
		return ArrayTuple(copyArrays(x))
	case ArrayList:
		return ArrayList(copyArrays(x))
	case TupleTuple:
		out := make(TupleTuple, len(x))
		for i := range x {
			out[i] = CopyValue(x[i])
		}
		return out
	case Map:
		out := Map{}
		for k, e := range x {
			out[k] = CopyValue(e)
		}
		return out
	}
	return v
}

func copyArrays(in []*ndarray.Array) []*ndarray.Array {
	out := make([]*ndarray.Array, len(in))
	for i, a := range in {
		out[i] = a.Copy()
	}
	return out
}

// Format renders a value for display.
func Format(v Value) string {
	switch x := v.(type) {
	case None:
		return "None"
	case Bool:
		if x {
			return "True"
		}
		return "False"
	case String:
		return fmt.Sprintf("%q", string(x))
	case Number:
		return fmt.Sprint(x.Interface())
	case NDArray:
		return fmt.Sprintf("%dD-array", x.A.Ndim())
	case NumberTuple:
		return fmt.Sprintf("tuple%v", x.Elems().Data)
	case NumberList:
		return fmt.Sprintf("list%v", x.Elems().Data)
	case StringTuple:
		return fmt.Sprintf("tuple%q", []string(x))
	case StringList:
		return fmt.Sprintf("list%q", []string(x))
	case ArrayTuple:
		return fmt.Sprintf("tuple of %d arrays", len(x))
	case ArrayList:
		return fmt.Sprintf("list of %d arrays", len(x))
	case TupleTuple:
		return fmt.Sprintf("tuple of %d tuples", len(x))
	case Map:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("dict%v", keys)
	}
	return fmt.Sprintf("%v", v)
}
