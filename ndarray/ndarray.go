// Package ndarray holds typed n-dimensional arrays.  An Array is a
// flat Go slice in row-major order plus a shape; the slice type fixes
// the Dtype.  Scalars are 0-d arrays with a single element.
package ndarray

import (
	"fmt"
	"reflect"
)

// Dtype names the element type of an Array.
type Dtype string

const (
	Bool       Dtype = "bool"
	Int8       Dtype = "int8"
	Int16      Dtype = "int16"
	Int32      Dtype = "int32"
	Int64      Dtype = "int64"
	Uint8      Dtype = "uint8"
	Uint16     Dtype = "uint16"
	Uint32     Dtype = "uint32"
	Uint64     Dtype = "uint64"
	Float32    Dtype = "float32"
	Float64    Dtype = "float64"
	Complex64  Dtype = "complex64"
	Complex128 Dtype = "complex128"
	String     Dtype = "str"
)

// IsNumeric reports whether dt holds numbers.
func (dt Dtype) IsNumeric() bool {
	switch dt {
	case Bool, String:
		return false
	}
	_, ok := sliceTypes[dt]
	return ok
}

// IsInteger reports whether dt is a signed or unsigned integer type.
func (dt Dtype) IsInteger() bool {
	switch dt {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

var sliceTypes = map[Dtype]reflect.Type{
	Bool:       reflect.TypeOf([]bool{}),
	Int8:       reflect.TypeOf([]int8{}),
	Int16:      reflect.TypeOf([]int16{}),
	Int32:      reflect.TypeOf([]int32{}),
	Int64:      reflect.TypeOf([]int64{}),
	Uint8:      reflect.TypeOf([]uint8{}),
	Uint16:     reflect.TypeOf([]uint16{}),
	Uint32:     reflect.TypeOf([]uint32{}),
	Uint64:     reflect.TypeOf([]uint64{}),
	Float32:    reflect.TypeOf([]float32{}),
	Float64:    reflect.TypeOf([]float64{}),
	Complex64:  reflect.TypeOf([]complex64{}),
	Complex128: reflect.TypeOf([]complex128{}),
	String:     reflect.TypeOf([]string{}),
}

// Array is a typed n-d array.  Data is one of the slice types listed
// in sliceTypes, and len(Data) equals the product of Shape.
type Array struct {
	Dtype Dtype
	Shape []int
	Data  interface{}
}

// DtypeOf returns the Dtype of a flat slice or a scalar value.  Plain
// int and uint are widened to their 64 bit forms by New and Scalar, so
// they are reported as such here.
func DtypeOf(v interface{}) (dt Dtype, err error) {
	switch v.(type) {
	case bool, []bool:
		return Bool, nil
	case int8, []int8:
		return Int8, nil
	case int16, []int16:
		return Int16, nil
	case int32, []int32:
		return Int32, nil
	case int64, []int64, int, []int:
		return Int64, nil
	case uint8, []uint8:
		return Uint8, nil
	case uint16, []uint16:
		return Uint16, nil
	case uint32, []uint32:
		return Uint32, nil
	case uint64, []uint64, uint, []uint:
		return Uint64, nil
	case float32, []float32:
		return Float32, nil
	case float64, []float64:
		return Float64, nil
	case complex64, []complex64:
		return Complex64, nil
	case complex128, []complex128:
		return Complex128, nil
	case string, []string:
		return String, nil
	}
	return "", fmt.Errorf("unsupported element type %T", v)
}

// New wraps a flat slice.  With no shape the array is 1-d.  The slice
// is not copied.
func New(data interface{}, shape ...int) (a *Array, err error) {
	switch d := data.(type) {
	case []int:
		wide := make([]int64, len(d))
		for i, x := range d {
			wide[i] = int64(x)
		}
		data = wide
	case []uint:
		wide := make([]uint64, len(d))
		for i, x := range d {
			wide[i] = uint64(x)
		}
		data = wide
	}
	dt, err := DtypeOf(data)
	if err != nil {
		return
	}
	n := reflect.ValueOf(data).Len()
	if shape == nil {
		shape = []int{n}
	}
	if size(shape) != n {
		return nil, fmt.Errorf("shape %v does not fit %d elements", shape, n)
	}
	return &Array{Dtype: dt, Shape: append([]int{}, shape...), Data: data}, nil
}

// MustNew is New for literals in tests and examples.
func MustNew(data interface{}, shape ...int) *Array {
	a, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Scalar returns a 0-d array holding v.
func Scalar(v interface{}) (a *Array, err error) {
	switch x := v.(type) {
	case int:
		v = int64(x)
	case uint:
		v = uint64(x)
	}
	if reflect.ValueOf(v).Kind() == reflect.Slice {
		return nil, fmt.Errorf("%T is not a scalar", v)
	}
	dt, err := DtypeOf(v)
	if err != nil {
		return
	}
	flat := reflect.MakeSlice(sliceTypes[dt], 1, 1)
	flat.Index(0).Set(reflect.ValueOf(v))
	return &Array{Dtype: dt, Shape: []int{}, Data: flat.Interface()}, nil
}

// Zeros allocates an array of the given dtype and shape.
func Zeros(dt Dtype, shape ...int) (a *Array, err error) {
	typ, ok := sliceTypes[dt]
	if !ok {
		return nil, fmt.Errorf("unknown dtype %q", dt)
	}
	n := size(shape)
	return &Array{Dtype: dt, Shape: append([]int{}, shape...), Data: reflect.MakeSlice(typ, n, n).Interface()}, nil
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Size is the number of elements.
func (a *Array) Size() int {
	return reflect.ValueOf(a.Data).Len()
}

// Ndim is the number of dimensions; 0 for scalars.
func (a *Array) Ndim() int {
	return len(a.Shape)
}

// At returns the element at flat index i.
func (a *Array) At(i int) interface{} {
	return reflect.ValueOf(a.Data).Index(i).Interface()
}

// Item returns the single element of a 0-d or one-element array.
func (a *Array) Item() (v interface{}, err error) {
	if a.Size() != 1 {
		return nil, fmt.Errorf("item of an array with %d elements", a.Size())
	}
	return a.At(0), nil
}

// Strings returns the data of a string array.
func (a *Array) Strings() ([]string, bool) {
	s, ok := a.Data.([]string)
	return s, ok
}

// Float64s converts numeric data to float64.  Complex values keep
// their real part.
func (a *Array) Float64s() (out []float64, err error) {
	if !a.Dtype.IsNumeric() {
		return nil, fmt.Errorf("dtype %s is not numeric", a.Dtype)
	}
	rv := reflect.ValueOf(a.Data)
	out = make([]float64, rv.Len())
	for i := range out {
		e := rv.Index(i)
		switch {
		case a.Dtype.IsInteger() && e.Kind() >= reflect.Uint && e.Kind() <= reflect.Uint64:
			out[i] = float64(e.Uint())
		case a.Dtype.IsInteger():
			out[i] = float64(e.Int())
		case a.Dtype == Complex64 || a.Dtype == Complex128:
			out[i] = real(e.Complex())
		default:
			out[i] = e.Float()
		}
	}
	return
}

// Int64s converts integer data to int64.
func (a *Array) Int64s() (out []int64, err error) {
	if !a.Dtype.IsInteger() {
		return nil, fmt.Errorf("dtype %s is not an integer type", a.Dtype)
	}
	rv := reflect.ValueOf(a.Data)
	out = make([]int64, rv.Len())
	for i := range out {
		e := rv.Index(i)
		if e.Kind() >= reflect.Uint && e.Kind() <= reflect.Uint64 {
			out[i] = int64(e.Uint())
		} else {
			out[i] = e.Int()
		}
	}
	return
}

// Slice returns elements [lo, hi) of a 1-d array as a new 1-d array
// sharing storage with a.
func (a *Array) Slice(lo, hi int) (*Array, error) {
	if a.Ndim() != 1 {
		return nil, fmt.Errorf("slice of a %d-d array", a.Ndim())
	}
	if lo < 0 || hi > a.Size() || lo > hi {
		return nil, fmt.Errorf("slice [%d:%d] out of range for length %d", lo, hi, a.Size())
	}
	data := reflect.ValueOf(a.Data).Slice(lo, hi).Interface()
	return &Array{Dtype: a.Dtype, Shape: []int{hi - lo}, Data: data}, nil
}

// Concat joins 1-d arrays of the same dtype.  With no input it returns
// an empty array of dtype dt.
func Concat(dt Dtype, arrays ...*Array) (out *Array, err error) {
	out, err = Zeros(dt, 0)
	if err != nil {
		return
	}
	acc := reflect.ValueOf(out.Data)
	for _, a := range arrays {
		if a.Dtype != dt {
			return nil, fmt.Errorf("concat dtype mismatch: %s != %s", a.Dtype, dt)
		}
		acc = reflect.AppendSlice(acc, reflect.ValueOf(a.Data))
	}
	out.Data = acc.Interface()
	out.Shape = []int{acc.Len()}
	return
}

// Take returns the elements of a 1-d array at the given indices, in
// order, as a new array.
func (a *Array) Take(idx []int) (*Array, error) {
	if a.Ndim() != 1 {
		return nil, fmt.Errorf("take from a %d-d array", a.Ndim())
	}
	rv := reflect.ValueOf(a.Data)
	out := reflect.MakeSlice(rv.Type(), len(idx), len(idx))
	for i, j := range idx {
		if j < 0 || j >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range for length %d", j, rv.Len())
		}
		out.Index(i).Set(rv.Index(j))
	}
	return &Array{Dtype: a.Dtype, Shape: []int{len(idx)}, Data: out.Interface()}, nil
}

// Arange returns n evenly spaced float64 values starting at start.
func Arange(start, step float64, n int) *Array {
	data := make([]float64, n)
	for i := range data {
		data[i] = start + step*float64(i)
	}
	return &Array{Dtype: Float64, Shape: []int{n}, Data: data}
}

// Copy returns a deep copy.
func (a *Array) Copy() *Array {
	rv := reflect.ValueOf(a.Data)
	dup := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(dup, rv)
	return &Array{Dtype: a.Dtype, Shape: append([]int{}, a.Shape...), Data: dup.Interface()}
}

// Equal compares dtype, shape and elements.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Dtype != b.Dtype || len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	av, bv := reflect.ValueOf(a.Data), reflect.ValueOf(b.Data)
	if av.Type() != bv.Type() || av.Len() != bv.Len() {
		return false
	}
	for i := 0; i < av.Len(); i++ {
		if av.Index(i).Interface() != bv.Index(i).Interface() {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	return fmt.Sprintf("%s%v%v", a.Dtype, a.Shape, a.Data)
}
