package evaluator

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
)

// ValueToJSON marshals a value to JSON bytes. Integral numbers are written
// without a decimal point; callables and non-finite numbers are written as
// their printed form. Instances become {"class": ..., "fields": {...}} with
// fields in key order, and an instance reached again through its own fields
// is written as its printed form.
func ValueToJSON(v Value) ([]byte, error) {
	raw := valueToRaw(v, make(map[*Instance]bool))
	return marshal(raw)
}

// marshal encodes without HTML escaping so printed forms like
// "<fn: f>" stay readable.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func valueToRaw(v Value, visiting map[*Instance]bool) any {
	switch val := v.(type) {
	case nil, Null:
		return nil

	case Bool:
		return val.Value

	case Number:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return formatNumber(val.Value)
		}
		if val.Value == math.Trunc(val.Value) && math.Abs(val.Value) < 1<<53 {
			return int64(val.Value)
		}
		return val.Value

	case String:
		return val.Value

	case *Instance:
		if visiting[val] {
			return Stringify(val)
		}
		visiting[val] = true
		defer delete(visiting, val)

		keys := make([]string, 0, len(val.Fields))
		for k := range val.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]fieldJSON, len(keys))
		for i, k := range keys {
			fields[i] = fieldJSON{key: k, value: valueToRaw(val.Fields[k], visiting)}
		}
		return &instanceJSON{Class: val.Class.Name, Fields: orderedFields(fields)}
	}

	return Stringify(v)
}

type instanceJSON struct {
	Class  string        `json:"class"`
	Fields orderedFields `json:"fields"`
}

type fieldJSON struct {
	key   string
	value any
}

// orderedFields preserves key order in JSON output.
type orderedFields []fieldJSON

func (o orderedFields) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("{}"), nil
	}

	buf := []byte{'{'}
	for i, kv := range o {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := marshal(kv.key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		valBytes, err := marshal(kv.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}
