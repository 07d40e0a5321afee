package ndarray

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Packed is the storage form of an Array: numeric and bool data as
// little-endian bytes, strings kept as a list.
type Packed struct {
	Dtype Dtype    `msgpack:"dtype"`
	Shape []int    `msgpack:"shape"`
	Raw   []byte   `msgpack:"raw,omitempty"`
	Strs  []string `msgpack:"strs,omitempty"`
}

// Pack converts a into its storage form.
func (a *Array) Pack() (p Packed, err error) {
	p.Dtype = a.Dtype
	p.Shape = append([]int{}, a.Shape...)
	if a.Dtype == String {
		s, _ := a.Strings()
		p.Strs = append([]string{}, s...)
		return
	}
	buf := &bytes.Buffer{}
	err = binary.Write(buf, binary.LittleEndian, a.Data)
	if err != nil {
		return p, fmt.Errorf("pack %s: %v", a.Dtype, err)
	}
	p.Raw = buf.Bytes()
	return
}

// Unpack rebuilds an Array from its storage form.
func (p Packed) Unpack() (a *Array, err error) {
	shape := p.Shape
	if shape == nil {
		shape = []int{}
	}
	a, err = Zeros(p.Dtype, shape...)
	if err != nil {
		return
	}
	if p.Dtype == String {
		if len(p.Strs) != a.Size() {
			return nil, fmt.Errorf("unpack str%v: have %d strings", shape, len(p.Strs))
		}
		copy(a.Data.([]string), p.Strs)
		return
	}
	if a.Size() == 0 {
		return
	}
	// binary.Read fills the preallocated slice in place
	err = binary.Read(bytes.NewReader(p.Raw), binary.LittleEndian, a.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s%v: %v", p.Dtype, shape, err)
	}
	return
}
