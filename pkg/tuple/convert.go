package tuple

import (
	"fmt"
	"math"

	"github.com/tidekv/tidekv/pkg/common"
	"github.com/tidekv/tidekv/pkg/slice"
)

// Coercion applied by the typed accessors after decoding: integer
// widths widen to int64, booleans read as the integers 0 and 1 (and the
// integers 0 and 1 read as booleans), slice.Slice reads as a byte
// string; everything else must match its kind.

func coerceInt(e Element) (int64, error) {
	switch v := e.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, common.NewOverflowError(fmt.Sprintf("tuple: value %d does not fit in int64", v))
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, common.NewTypeError(fmt.Sprintf("tuple: cannot decode %T as integer", e))
}

func coerceUint(e Element) (uint64, error) {
	switch v := e.(type) {
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	}
	i, err := coerceInt(e)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, common.NewTypeError(fmt.Sprintf("tuple: cannot decode negative value %d as unsigned", i))
	}
	return uint64(i), nil
}

func coerceString(e Element) (string, error) {
	if s, ok := e.(string); ok {
		return s, nil
	}
	return "", common.NewTypeError(fmt.Sprintf("tuple: cannot decode %T as string", e))
}

func coerceBytes(e Element) ([]byte, error) {
	switch v := e.(type) {
	case []byte:
		return v, nil
	case slice.Slice:
		return v.Bytes(), nil
	}
	return nil, common.NewTypeError(fmt.Sprintf("tuple: cannot decode %T as byte string", e))
}

func coerceBool(e Element) (bool, error) {
	switch v := e.(type) {
	case bool:
		return v, nil
	}
	i, err := coerceInt(e)
	if err != nil {
		return false, common.NewTypeError(fmt.Sprintf("tuple: cannot decode %T as boolean", e))
	}
	switch i {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, common.NewTypeError(fmt.Sprintf("tuple: cannot decode integer %d as boolean", i))
}
