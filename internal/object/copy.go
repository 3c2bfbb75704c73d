package object

import "reflect"

// deepCopy copies a member template into per-instance storage. Maps and
// slices are copied recursively; a shared or cyclic structure inside one
// template stays shared or cyclic inside the copy. Scalars, strings and
// function values are taken by reference.
func deepCopy(v any) any {
	if v == nil {
		return nil
	}
	return copyValue(v, make(map[uintptr]any))
}

func copyValue(v any, seen map[uintptr]any) any {
	switch src := v.(type) {
	case map[string]any:
		key := reflect.ValueOf(src).Pointer()
		if dup, ok := seen[key]; ok {
			return dup
		}
		dst := make(map[string]any, len(src))
		seen[key] = dst
		for k, elem := range src {
			dst[k] = copyValue(elem, seen)
		}
		return dst
	case []any:
		if src == nil {
			return src
		}
		key := reflect.ValueOf(src).Pointer()
		if dup, ok := seen[key]; ok {
			return dup
		}
		dst := make([]any, len(src))
		seen[key] = dst
		for idx, elem := range src {
			dst[idx] = copyValue(elem, seen)
		}
		return dst
	default:
		return v
	}
}
