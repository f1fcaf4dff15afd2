package engine

// Nullable is a comparable stand-in for a nullable column value, used to build map
// keys from pointer fields.
type Nullable[T comparable] struct {
	Value T
	Valid bool
}

// NullableOf copies *p into a Nullable.
func NullableOf[T comparable](p *T) Nullable[T] {
	if p == nil {
		return Nullable[T]{}
	}
	return Nullable[T]{Value: *p, Valid: true}
}

// Filter keeps the rows for which keep returns true.
func Filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Map projects every row.
func Map[T, U any](rows []T, fn func(T) U) []U {
	out := make([]U, len(rows))
	for i, row := range rows {
		out[i] = fn(row)
	}
	return out
}

// Distinct drops rows whose key was already seen; the first occurrence wins.
func Distinct[T any, K comparable](rows []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}

// Lookup indexes the build side of an equi-join. key reports false for rows whose join
// columns contain a null; those rows can never match. When two rows share a key, the
// one for which less(a, b) holds is kept.
func Lookup[R any, K comparable](rows []R, key func(R) (K, bool), less func(a, b R) bool) map[K]R {
	idx := make(map[K]R, len(rows))
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		if prev, exists := idx[k]; exists && !less(row, prev) {
			continue
		}
		idx[k] = row
	}
	return idx
}

// LeftJoin emits exactly one output per left row. emit receives nil when the left row
// has no match or a null join column.
func LeftJoin[L, R, O any, K comparable](left []L, right map[K]R, key func(L) (K, bool), emit func(L, *R) O) []O {
	out := make([]O, 0, len(left))
	for _, row := range left {
		var match *R
		if k, ok := key(row); ok {
			if r, found := right[k]; found {
				match = &r
			}
		}
		out = append(out, emit(row, match))
	}
	return out
}
