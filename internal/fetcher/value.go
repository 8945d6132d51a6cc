package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueInt
	ValueFloat
	ValueText
	ValueBool
	ValueTime
	ValueBytes
)

// Value is one column value of a fetched row.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
	raw  []byte
}

func Null() Value               { return Value{kind: ValueNull} }
func Int(v int64) Value         { return Value{kind: ValueInt, i: v} }
func Float(v float64) Value     { return Value{kind: ValueFloat, f: v} }
func Text(v string) Value       { return Value{kind: ValueText, s: v} }
func Bool(v bool) Value         { return Value{kind: ValueBool, b: v} }
func Time(v time.Time) Value    { return Value{kind: ValueTime, t: v} }
func Bytes(v []byte) Value      { return Value{kind: ValueBytes, raw: append([]byte(nil), v...)} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == ValueNull }

func (v Value) Int() (int64, bool)       { return v.i, v.kind == ValueInt }
func (v Value) Float() (float64, bool)   { return v.f, v.kind == ValueFloat }
func (v Value) Text() (string, bool)     { return v.s, v.kind == ValueText }
func (v Value) Bool() (bool, bool)       { return v.b, v.kind == ValueBool }
func (v Value) Time() (time.Time, bool)  { return v.t, v.kind == ValueTime }
func (v Value) Bytes() ([]byte, bool)    { return v.raw, v.kind == ValueBytes }

// ValueOf converts a value produced by a database/sql driver.
func ValueOf(src any) Value {
	switch v := src.(type) {
	case nil:
		return Null()
	case int64:
		return Int(v)
	case int32:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int:
		return Int(int64(v))
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		if v > 1<<63-1 {
			return Text(strconv.FormatUint(v, 10))
		}
		return Int(int64(v))
	case float64:
		return Float(v)
	case float32:
		return Float(float64(v))
	case bool:
		return Bool(v)
	case time.Time:
		return Time(v)
	case string:
		return Text(v)
	case []byte:
		if utf8.Valid(v) {
			return Text(string(v))
		}
		return Bytes(v)
	case fmt.Stringer:
		return Text(v.String())
	default:
		return Text(fmt.Sprint(v))
	}
}

// MarshalJSON renders the variant as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case ValueFloat:
		return marshalFloat(v.f)
	case ValueText:
		return json.Marshal(v.s)
	case ValueBool:
		return json.Marshal(v.b)
	case ValueTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case ValueBytes:
		return json.Marshal(v.raw)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// marshalFloat writes non-finite floats as strings since JSON has no literal
// for them.
func marshalFloat(f float64) ([]byte, error) {
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(f)
}

// Field is a named column value.
type Field struct {
	Name  string
	Value Value
}

// Record is one row in column order. Null columns are kept as Null values.
type Record []Field

// Get returns the value of the named column.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// MarshalJSON renders the record as an object preserving column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
