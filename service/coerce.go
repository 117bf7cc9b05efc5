// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Int is an integer field that also accepts a numeric string. A fractional
// number is truncated.
type Int int

// UnmarshalJSON implements json.Unmarshaler.
func (i *Int) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := decodeNumber(b, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return i.set(n, b)
		}
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) {
			return fmt.Errorf("%s is not an integer", b)
		}
		return i.set(int64(f), b)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 0)
		if err != nil {
			return fmt.Errorf("%s is not an integer", b)
		}
		return i.set(n, b)
	}
	return fmt.Errorf("%s is not an integer", b)
}

func (i *Int) set(n int64, b []byte) error {
	if n != int64(int(n)) {
		return fmt.Errorf("%s is out of range", b)
	}
	*i = Int(n)
	return nil
}

// Bool is a boolean field that also accepts a number, which is true unless
// zero, and the strings 1, true, yes, on, enable, 0, false, no, off and
// disable in any case.
type Bool bool

// UnmarshalJSON implements json.Unmarshaler.
func (v *Bool) UnmarshalJSON(b []byte) error {
	var x interface{}
	if err := decodeNumber(b, &x); err != nil {
		return err
	}
	switch x := x.(type) {
	case bool:
		*v = Bool(x)
		return nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("%s is not a boolean", b)
		}
		*v = f != 0
		return nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on", "enable":
			*v = true
			return nil
		case "0", "false", "no", "off", "disable":
			*v = false
			return nil
		}
	}
	return fmt.Errorf("%s is not a boolean", b)
}

// String is a string field that also accepts a number or a boolean, kept as
// written. null leaves it unchanged.
type String string

// UnmarshalJSON implements json.Unmarshaler.
func (s *String) UnmarshalJSON(b []byte) error {
	var x interface{}
	if err := decodeNumber(b, &x); err != nil {
		return err
	}
	switch x := x.(type) {
	case nil:
	case string:
		*s = String(x)
	case json.Number:
		*s = String(x)
	case bool:
		*s = String(strconv.FormatBool(x))
	default:
		return fmt.Errorf("%s is not a string", b)
	}
	return nil
}

// decodeNumber decodes b keeping numbers as json.Number.
func decodeNumber(b []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}
