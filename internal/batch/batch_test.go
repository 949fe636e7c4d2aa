package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChunk(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"empty", nil, 3, nil},
		{"even split", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"ragged tail", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"oversized batch", []int{1, 2}, 10, [][]int{{1, 2}}},
		{"size one", []int{1, 2}, 1, [][]int{{1}, {2}}},
		{"invalid size", []int{1, 2}, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Chunk(tc.items, tc.size)
			if len(got) != len(tc.want) {
				t.Fatalf("Chunk returned %d chunks, want %d", len(got), len(tc.want))
			}
			for i := range tc.want {
				if len(got[i]) != len(tc.want[i]) {
					t.Fatalf("chunk %d = %v, want %v", i, got[i], tc.want[i])
				}
				for j := range tc.want[i] {
					if got[i][j] != tc.want[i][j] {
						t.Fatalf("chunk %d = %v, want %v", i, got[i], tc.want[i])
					}
				}
			}
		})
	}
}

func TestProcessInBatchesIsolatesFailures(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6}
	calls := 0
	out := ProcessInBatches(context.Background(), items, 2, func(_ context.Context, chunk []int) ([]int, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("boom")
		}
		doubled := make([]int, 0, len(chunk))
		for _, n := range chunk {
			doubled = append(doubled, n*2)
		}
		return doubled, nil
	}, nil)

	want := []int{2, 4, 10, 12}
	if len(out.Results) != len(want) {
		t.Fatalf("Results = %v, want %v", out.Results, want)
	}
	for i := range want {
		if out.Results[i] != want[i] {
			t.Fatalf("Results = %v, want %v", out.Results, want)
		}
	}
	if len(out.Errors) != 1 {
		t.Fatalf("Errors = %v, want one entry", out.Errors)
	}
	if !strings.Contains(out.Errors[0], "Batch 2") {
		t.Fatalf("error %q does not mention Batch 2", out.Errors[0])
	}
	if !strings.Contains(out.Errors[0], "boom") {
		t.Fatalf("error %q does not include the cause", out.Errors[0])
	}
}

func TestProcessInBatchesEmptyInput(t *testing.T) {
	t.Parallel()

	out := ProcessInBatches(context.Background(), nil, 5, func(context.Context, []int) ([]int, error) {
		t.Fatal("processor must not be invoked for empty input")
		return nil, nil
	}, nil)
	if len(out.Results) != 0 || len(out.Errors) != 0 {
		t.Fatalf("expected empty outcome, got %+v", out)
	}
}

func TestProcessInBatchesProgressCallback(t *testing.T) {
	t.Parallel()

	var indexes []int
	var sizes []int
	ProcessInBatches(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, chunk []int) ([]int, error) {
		if chunk[0] == 3 { // second batch
			return nil, errors.New("boom")
		}
		return chunk, nil
	}, func(index, size int) {
		indexes = append(indexes, index)
		sizes = append(sizes, size)
	})

	if len(indexes) != 2 || indexes[0] != 1 || indexes[1] != 3 {
		t.Fatalf("callback indexes = %v, want [1 3]", indexes)
	}
	if sizes[0] != 2 || sizes[1] != 1 {
		t.Fatalf("callback sizes = %v, want [2 1]", sizes)
	}
}
