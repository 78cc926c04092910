package utils

import (
	"reflect"
	"testing"
)

func TestChunk(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	cases := []struct {
		size int
		want [][]string
	}{
		{2, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}},
		{5, [][]string{in}},
		{50, [][]string{in}},
		{1, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}},
		{0, [][]string{in}},
	}
	for _, tc := range cases {
		if got := Chunk(in, tc.size); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Chunk(size=%d) expected %v, got %v", tc.size, tc.want, got)
		}
	}
	if got := Chunk([]string{}, 3); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestChunkDoesNotAlias(t *testing.T) {
	in := []int{1, 2, 3, 4}
	chunks := Chunk(in, 2)
	chunks[0] = append(chunks[0], 99)
	if in[2] != 3 {
		t.Fatalf("appending to a chunk overwrote the next one: %v", in)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]string{"V2", "V1", "V2", "V3", "V1"})
	if !reflect.DeepEqual(got, []string{"V2", "V1", "V3"}) {
		t.Fatalf("unexpected %v", got)
	}
}
