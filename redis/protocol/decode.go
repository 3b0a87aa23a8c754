package protocol

// Decode shapes: one total function per target shape the command catalogue
// expects. Every function propagates a server Error reply unchanged and
// fails with *TypeMismatchError on any variant outside its accepted set.
// There is deliberately no default fallback that would hide an unhandled
// variant.

// DecodeString covers the optional-text shape. ok is false only for the nil
// bulk string sentinel.
func DecodeString(reply *Reply) (value string, ok bool, err error) {
	switch reply.typ {
	case TypeError:
		return "", false, reply.err
	case TypeStatus:
		return string(reply.str), true, nil
	case TypeBulkString:
		if reply.null {
			return "", false, nil
		}
		return string(reply.str), true, nil
	}
	return "", false, &TypeMismatchError{Expected: "status or bulk string", Actual: reply.typ}
}

func DecodeInteger(reply *Reply) (int64, error) {
	switch reply.typ {
	case TypeError:
		return 0, reply.err
	case TypeInteger:
		return reply.number, nil
	}
	return 0, &TypeMismatchError{Expected: "integer", Actual: reply.typ}
}

// DecodeStringSlice accepts an array of bulk string or status elements. A
// nil array decodes to a nil slice, a *0 array to an empty one; nil
// elements become empty text.
func DecodeStringSlice(reply *Reply) ([]string, error) {
	switch reply.typ {
	case TypeError:
		return nil, reply.err
	case TypeArray:
		if reply.null {
			return nil, nil
		}
		values := make([]string, len(reply.array))
		for i, element := range reply.array {
			switch element.typ {
			case TypeStatus, TypeBulkString:
				values[i] = string(element.str)
			case TypeError:
				return nil, element.err
			default:
				return nil, &TypeMismatchError{Expected: "status or bulk string element", Actual: element.typ}
			}
		}
		return values, nil
	}
	return nil, &TypeMismatchError{Expected: "array", Actual: reply.typ}
}

func DecodeIntegerSlice(reply *Reply) ([]int64, error) {
	switch reply.typ {
	case TypeError:
		return nil, reply.err
	case TypeArray:
		if reply.null {
			return nil, nil
		}
		values := make([]int64, len(reply.array))
		for i, element := range reply.array {
			if element.typ == TypeError {
				return nil, element.err
			}
			if element.typ != TypeInteger {
				return nil, &TypeMismatchError{Expected: "integer element", Actual: element.typ}
			}
			values[i] = element.number
		}
		return values, nil
	}
	return nil, &TypeMismatchError{Expected: "array", Actual: reply.typ}
}

// MapEntry is one key/value pair of an alternating-element array reply, in
// server order.
type MapEntry struct {
	Key   string
	Value string
}

// DecodeEntries pairs elements (2i, 2i+1) of an even-length array as
// (key, value), preserving order.
func DecodeEntries(reply *Reply) ([]MapEntry, error) {
	values, err := DecodeStringSlice(reply)
	if err != nil {
		return nil, err
	}
	if values == nil {
		return nil, nil
	}
	if len(values)%2 != 0 {
		return nil, &TypeMismatchError{Expected: "array with even element count", Actual: TypeArray}
	}
	entries := make([]MapEntry, 0, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		entries = append(entries, MapEntry{Key: values[i], Value: values[i+1]})
	}
	return entries, nil
}

// DecodeStringMap is the map view of DecodeEntries. Later duplicate keys
// win, matching server behavior for repeated fields.
func DecodeStringMap(reply *Reply) (map[string]string, error) {
	entries, err := DecodeEntries(reply)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, nil
	}
	m := make(map[string]string, len(entries))
	for _, entry := range entries {
		m[entry.Key] = entry.Value
	}
	return m, nil
}

// DecodeUnit discards the payload of any non-error reply.
func DecodeUnit(reply *Reply) error {
	if reply.typ == TypeError {
		return reply.err
	}
	return nil
}

// DecodeTime decomposes a TIME-style reply, an array of exactly two
// integers, into whole seconds and sub-second microseconds.
func DecodeTime(reply *Reply) (seconds int64, microseconds int64, err error) {
	switch reply.typ {
	case TypeError:
		return 0, 0, reply.err
	case TypeArray:
		if reply.null || len(reply.array) != 2 {
			return 0, 0, &TypeMismatchError{Expected: "array of exactly 2 integers", Actual: reply.typ}
		}
		for _, element := range reply.array {
			if element.typ == TypeError {
				return 0, 0, element.err
			}
			if element.typ != TypeInteger {
				return 0, 0, &TypeMismatchError{Expected: "integer element", Actual: element.typ}
			}
		}
		return reply.array[0].number, reply.array[1].number, nil
	}
	return 0, 0, &TypeMismatchError{Expected: "array of exactly 2 integers", Actual: reply.typ}
}
