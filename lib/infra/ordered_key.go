package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint that permits any floating-point type.
// NaN is not ordered against anything, so a tree keyed by floats
// must never receive one.
type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// Comparator
// Assume i is the new key.
//  1. i == j (return 0)
//  2. i > j (return 1), turn to right part.
//  3. i < j (return -1), turn to left part.
//
// It must be a strict total order. Callers never pass an absent value.
type Comparator[T any] func(i, j T) int64

// OrderedKeyComparator builds the natural order comparator of K.
// With desc the order is reversed, so the greatest key becomes the
// leftmost one.
func OrderedKeyComparator[K OrderedKey](desc bool) Comparator[K] {
	return func(i, j K) int64 {
		if i == j {
			return 0
		} else if i < j {
			if !desc {
				return -1
			}
			return 1
		}
		if !desc {
			return 1
		}
		return -1
	}
}
