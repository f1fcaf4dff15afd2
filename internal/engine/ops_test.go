package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNullableOf(t *testing.T) {
	assert.Equal(t, Nullable[string]{}, NullableOf[string](nil))
	assert.Equal(t, Nullable[string]{Value: "A1", Valid: true}, NullableOf(strPtr("A1")))
	assert.NotEqual(t, NullableOf(strPtr("")), NullableOf[string](nil), "empty string is not null")
}

func TestFilterMapDistinct(t *testing.T) {
	rows := []int{3, 1, 3, 2, 1, 4}

	assert.Equal(t, []int{2, 4}, Filter(rows, func(v int) bool { return v%2 == 0 }))
	assert.Equal(t, []string{"3", "1"}, Map(rows[:2], func(v int) string { return string(rune('0' + v)) }))
	assert.Equal(t, []int{3, 1, 2, 4}, Distinct(rows, func(v int) int { return v }))
}

type song struct {
	id, title string
	year      *int32
}

func TestDistinctTreatsNullsAsEqual(t *testing.T) {
	y := int32(0)
	rows := []song{
		{id: "S1", title: "Foo"},
		{id: "S1", title: "Foo"},
		{id: "S1", title: "Foo", year: &y},
	}
	type key struct {
		id, title string
		year      Nullable[int32]
	}
	got := Distinct(rows, func(s song) key { return key{s.id, s.title, NullableOf(s.year)} })
	assert.Len(t, got, 2)
	assert.Nil(t, got[0].year)
	assert.Equal(t, int32(0), *got[1].year)
}

func TestLookupAndLeftJoin(t *testing.T) {
	type event struct {
		song *string
		n    int
	}
	right := []song{
		{id: "S2", title: "Foo"},
		{id: "S1", title: "Foo"},
		{id: "S3", title: "Bar"},
	}
	idx := Lookup(right,
		func(s song) (string, bool) { return s.title, s.title != "" },
		func(a, b song) bool { return a.id < b.id },
	)
	assert.Len(t, idx, 2)
	assert.Equal(t, "S1", idx["Foo"].id)

	left := []event{{song: strPtr("Foo"), n: 1}, {song: strPtr("Baz"), n: 2}, {song: nil, n: 3}}
	out := LeftJoin(left, idx,
		func(e event) (string, bool) {
			if e.song == nil {
				return "", false
			}
			return *e.song, true
		},
		func(e event, s *song) string {
			if s == nil {
				return "-"
			}
			return s.id
		},
	)
	assert.Equal(t, []string{"S1", "-", "-"}, out)
}
