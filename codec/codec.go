// Package codec persists metadata values into store groups.  Every
// value becomes one dataset or one child group named after its key,
// tagged with a "type" attribute; decoding dispatches on that tag
// alone, never on the stored shape.
package codec

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

const (
	// TypeAttr holds a stored value's tag.
	TypeAttr = "type"
	// LengthAttr holds the element count of a sequence group.
	LengthAttr = "length"
	// legacyNone is the tag older files used for None.
	legacyNone = "None"
)

func codecErr(key, format string, args ...interface{}) error {
	return &tree.CodecError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

func dataset(grp *store.Group, key string, tag tree.Tag, a *ndarray.Array) (err error) {
	ds, err := grp.CreateDataset(key, a)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	ds.SetStringAttr(TypeAttr, string(tag))
	return
}

func subgroup(grp *store.Group, key string, tag tree.Tag) (sub *store.Group, err error) {
	sub, err = grp.CreateGroup(key)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", key)
	}
	sub.SetStringAttr(TypeAttr, string(tag))
	return
}

func numeric(key string, a *ndarray.Array, ndim int) error {
	if a == nil {
		return codecErr(key, "missing array")
	}
	if !a.Dtype.IsNumeric() {
		return codecErr(key, "dtype %s is not numeric", a.Dtype)
	}
	if ndim >= 0 && a.Ndim() != ndim {
		return codecErr(key, "expected %d dimensions, got shape %v", ndim, a.Shape)
	}
	return nil
}

// Encode writes v under key in grp.
func Encode(grp *store.Group, key string, v tree.Value) (err error) {
	switch x := v.(type) {
	case nil:
		return codecErr(key, "nil value")
	case tree.None:
		return dataset(grp, key, tree.TagNone, scalar(""))
	case tree.String:
		return dataset(grp, key, tree.TagString, scalar(string(x)))
	case tree.Bool:
		return dataset(grp, key, tree.TagBool, ndarray.MustNew([]bool{bool(x)}))
	case tree.Number:
		err = numeric(key, x.A, 0)
		if err != nil {
			return
		}
		return dataset(grp, key, tree.TagNumber, x.A.Copy())
	case tree.NDArray:
		if x.A == nil {
			return codecErr(key, "missing array")
		}
		return dataset(grp, key, tree.TagArray, x.A.Copy())
	case tree.NumberTuple:
		a := x.Elems()
		err = numeric(key, a, 1)
		if err != nil {
			return
		}
		return dataset(grp, key, tree.TagTuple, a.Copy())
	case tree.NumberList:
		a := x.Elems()
		err = numeric(key, a, 1)
		if err != nil {
			return
		}
		return dataset(grp, key, tree.TagList, a.Copy())
	case tree.StringTuple:
		return encodeStrings(grp, key, tree.TagTupleOfStrings, x)
	case tree.StringList:
		return encodeStrings(grp, key, tree.TagListOfStrings, x)
	case tree.ArrayTuple:
		return encodeArrays(grp, key, tree.TagTupleOfArrays, x)
	case tree.ArrayList:
		return encodeArrays(grp, key, tree.TagListOfArrays, x)
	case tree.TupleTuple:
		return encodeTuples(grp, key, x)
	case tree.Map:
		return encodeMap(grp, key, x)
	default:
		return codecErr(key, "unsupported value type %T", v)
	}
}

func scalar(s string) *ndarray.Array {
	a, _ := ndarray.Scalar(s)
	return a
}

func encodeStrings(grp *store.Group, key string, tag tree.Tag, strs []string) (err error) {
	sub, err := subgroup(grp, key, tag)
	if err != nil {
		return
	}
	sub.SetIntAttr(LengthAttr, int64(len(strs)))
	for i, s := range strs {
		_, err = sub.CreateDataset(strconv.Itoa(i), scalar(s))
		if err != nil {
			return errors.Wrapf(err, "encode %s[%d]", key, i)
		}
	}
	return
}

func encodeArrays(grp *store.Group, key string, tag tree.Tag, arrays []*ndarray.Array) (err error) {
	for i, a := range arrays {
		if a == nil {
			return codecErr(key, "element %d is nil", i)
		}
	}
	sub, err := subgroup(grp, key, tag)
	if err != nil {
		return
	}
	sub.SetIntAttr(LengthAttr, int64(len(arrays)))
	for i, a := range arrays {
		_, err = sub.CreateDataset(strconv.Itoa(i), a.Copy())
		if err != nil {
			return errors.Wrapf(err, "encode %s[%d]", key, i)
		}
	}
	return
}

func encodeTuples(grp *store.Group, key string, tuples tree.TupleTuple) (err error) {
	elems := make([]*ndarray.Array, len(tuples))
	for i, e := range tuples {
		switch x := e.(type) {
		case tree.Number:
			err = numeric(key, x.A, 0)
			elems[i] = x.A
		case tree.NumberTuple:
			elems[i] = x.Elems()
			err = numeric(key, elems[i], 1)
		default:
			err = codecErr(key, "element %d: %T is neither a number nor a tuple", i, e)
		}
		if err != nil {
			return
		}
	}
	return encodeArrays(grp, key, tree.TagTupleOfTuples, elems)
}

func encodeMap(grp *store.Group, key string, m tree.Map) (err error) {
	sub, err := subgroup(grp, key, tree.TagDict)
	if err != nil {
		return
	}
	for k, v := range m {
		err = Encode(sub, k, v)
		if err != nil {
			return
		}
	}
	return
}

// Decode reads the value stored under key in grp.
func Decode(grp *store.Group, key string) (v tree.Value, err error) {
	if grp.HasDataset(key) {
		ds, _ := grp.Dataset(key)
		tag, ok := ds.StringAttr(TypeAttr)
		if !ok {
			return nil, codecErr(key, "no %s attribute", TypeAttr)
		}
		return decodeDataset(key, tree.Tag(tag), ds.Data)
	}
	if grp.HasGroup(key) {
		sub, _ := grp.Group(key)
		tag, ok := sub.StringAttr(TypeAttr)
		if !ok {
			return nil, codecErr(key, "no %s attribute", TypeAttr)
		}
		return decodeGroup(key, tree.Tag(tag), sub)
	}
	return nil, &tree.PathError{Path: grp.Path(), Missing: key}
}

func decodeDataset(key string, tag tree.Tag, a *ndarray.Array) (v tree.Value, err error) {
	switch tag {
	case tree.TagNone, legacyNone:
		return tree.None{}, nil
	case tree.TagString:
		strs, ok := a.Strings()
		if !ok || len(strs) != 1 {
			return nil, codecErr(key, "string stored as %s%v", a.Dtype, a.Shape)
		}
		return tree.String(strs[0]), nil
	case tree.TagBool:
		b, ok := a.Data.([]bool)
		if !ok || len(b) != 1 {
			return nil, codecErr(key, "bool stored as %s%v", a.Dtype, a.Shape)
		}
		return tree.Bool(b[0]), nil
	case tree.TagNumber:
		err = numeric(key, a, -1)
		if err != nil {
			return
		}
		if a.Size() != 1 {
			return nil, codecErr(key, "number stored with shape %v", a.Shape)
		}
		item, err := a.Item()
		if err != nil {
			return nil, codecErr(key, "%v", err)
		}
		return tree.NumberOf(item)
	case tree.TagArray:
		return tree.NDArray{A: a}, nil
	case tree.TagTuple:
		err = numeric(key, a, 1)
		return tree.NumberTuple{A: a}, err
	case tree.TagList:
		err = numeric(key, a, 1)
		return tree.NumberList{A: a}, err
	}
	return nil, codecErr(key, "unknown dataset tag %q", tag)
}

func decodeGroup(key string, tag tree.Tag, sub *store.Group) (v tree.Value, err error) {
	switch tag {
	case tree.TagDict:
		m := tree.Map{}
		for _, k := range append(sub.Datasets(), sub.Groups()...) {
			m[k], err = Decode(sub, k)
			if err != nil {
				return
			}
		}
		return m, nil
	case tree.TagTupleOfStrings, tree.TagListOfStrings:
		elems, err := sequence(key, sub)
		if err != nil {
			return nil, err
		}
		strs := make([]string, len(elems))
		for i, a := range elems {
			s, ok := a.Strings()
			if !ok || len(s) != 1 {
				return nil, codecErr(key, "element %d is not a string", i)
			}
			strs[i] = s[0]
		}
		if tag == tree.TagTupleOfStrings {
			return tree.StringTuple(strs), nil
		}
		return tree.StringList(strs), nil
	case tree.TagTupleOfArrays:
		elems, err := sequence(key, sub)
		return tree.ArrayTuple(elems), err
	case tree.TagListOfArrays:
		elems, err := sequence(key, sub)
		return tree.ArrayList(elems), err
	case tree.TagTupleOfTuples:
		elems, err := sequence(key, sub)
		if err != nil {
			return nil, err
		}
		tt := make(tree.TupleTuple, len(elems))
		for i, a := range elems {
			if a.Ndim() == 0 {
				tt[i], err = decodeDataset(key, tree.TagNumber, a)
			} else {
				tt[i], err = decodeDataset(key, tree.TagTuple, a)
			}
			if err != nil {
				return nil, err
			}
		}
		return tt, nil
	}
	return nil, codecErr(key, "unknown group tag %q", tag)
}

// sequence reads the datasets "0".."length-1" of sub.
func sequence(key string, sub *store.Group) (elems []*ndarray.Array, err error) {
	n, ok := sub.IntAttr(LengthAttr)
	if !ok {
		return nil, codecErr(key, "no %s attribute", LengthAttr)
	}
	if n < 0 || n > int64(len(sub.Datasets())) {
		return nil, codecErr(key, "bad %s %d", LengthAttr, n)
	}
	elems = make([]*ndarray.Array, n)
	for i := range elems {
		ds, err := sub.Dataset(strconv.Itoa(i))
		if err != nil {
			return nil, codecErr(key, "element %d missing", i)
		}
		elems[i] = ds.Data
	}
	log.Debugf("decoded %d elements of %s", n, key)
	return
}
