// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package platform

import (
	"encoding/json"
	"math"
)

// JSONValue is a tolerant JSON value tree: asking an object for a field of
// the wrong type (or a missing field) returns ok == false instead of
// failing the whole parse. Model descriptors rely on this: a single
// ill-typed field must degrade to "absent" so that validation, not
// parsing, reports the problem.
type JSONValue struct {
	v interface{}
}

// ParseJSON decodes raw JSON text into a JSONValue tree. A syntax error is
// the only way Parse fails; once parsed, every field access is tolerant.
func ParseJSON(data []byte) (JSONValue, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return JSONValue{}, err
	}
	return JSONValue{v: v}, nil
}

func (j JSONValue) object() (map[string]interface{}, bool) {
	m, ok := j.v.(map[string]interface{})
	return m, ok
}

// Object returns the sub-value at key if j is an object and key is present.
func (j JSONValue) Object(key string) (JSONValue, bool) {
	m, ok := j.object()
	if !ok {
		return JSONValue{}, false
	}
	child, ok := m[key]
	if !ok {
		return JSONValue{}, false
	}
	return JSONValue{v: child}, true
}

// Array returns the element values at key if j is an object, key is
// present, and the value is a JSON array.
func (j JSONValue) Array(key string) ([]JSONValue, bool) {
	m, ok := j.object()
	if !ok {
		return nil, false
	}
	raw, ok := m[key]
	if !ok {
		return nil, false
	}
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]JSONValue, len(arr))
	for i, e := range arr {
		out[i] = JSONValue{v: e}
	}
	return out, true
}

// String returns the string at key, or ok == false if absent or not a string.
func (j JSONValue) String(key string) (string, bool) {
	m, ok := j.object()
	if !ok {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

// Number returns the numeric value at key, or ok == false if absent or not
// a number. encoding/json decodes all JSON numbers as float64.
func (j JSONValue) Number(key string) (float64, bool) {
	m, ok := j.object()
	if !ok {
		return 0, false
	}
	n, ok := m[key].(float64)
	return n, ok
}

// Int returns the numeric value at key truncated to int, or ok == false if
// absent, not a number, or not representable as a non-negative size.
func (j JSONValue) Int(key string) (int, bool) {
	n, ok := j.Number(key)
	if !ok || n < 0 || n >= float64(math.MaxInt) {
		return 0, false
	}
	return int(n), true
}

// Bool returns the boolean at key, or ok == false if absent or not a bool.
func (j JSONValue) Bool(key string) (bool, bool) {
	m, ok := j.object()
	if !ok {
		return false, false
	}
	b, ok := m[key].(bool)
	return b, ok
}
