package pool

import (
	"sync"
	"testing"
)

func TestPathBuilder_AppendSegment(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.AppendSegment("item 2")
	pb.AppendSegment("value of key 'a'")

	if got, want := pb.String(), "item 2 of value of key 'a'"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestPathBuilder_AppendItem(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.AppendItem(0)
	pb.AppendSegment(`argument "xs"`)
	pb.AppendItem(12)

	if got, want := pb.String(), `item 0 of argument "xs" of item 12`; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestPathBuilder_Reset(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.AppendSegment("key 1")
	pb.Reset()

	if pb.Len() != 0 {
		t.Errorf("Len() after Reset = %d; want 0", pb.Len())
	}
}

func TestJoinSegments(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{nil, ""},
		{[]string{"item 0"}, "item 0"},
		{[]string{"item 0", "key 'k'", `argument "x"`}, `item 0 of key 'k' of argument "x"`},
	}

	for _, tt := range tests {
		if got := JoinSegments(tt.segments); got != tt.want {
			t.Errorf("JoinSegments(%v) = %q; want %q", tt.segments, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		segments []string
		message  string
		want     string
	}{
		{nil, "is not a list", "is not a list"},
		{[]string{"item 3", "key 'k'", `argument "x"`}, "is not an instance of int",
			`item 3 of key 'k' of argument "x" is not an instance of int`},
	}

	for _, tt := range tests {
		if got := Render(tt.segments, tt.message); got != tt.want {
			t.Errorf("Render(%v, %q) = %q; want %q", tt.segments, tt.message, got, tt.want)
		}
	}
}

func TestItem(t *testing.T) {
	if got := Item(7); got != "item 7" {
		t.Errorf("Item(7) = %q; want %q", got, "item 7")
	}
}

func TestPathBuilder_ReleaseNil(t *testing.T) {
	var pb *PathBuilder
	pb.Release()
}

func TestRender_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got := Render([]string{Item(i)}, "is not a str")
			if want := Item(i) + " is not a str"; got != want {
				t.Errorf("Render() = %q; want %q", got, want)
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkRender(b *testing.B) {
	segments := []string{"item 2", "value of key 'a'", `argument "x"`}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Render(segments, "is not an instance of int")
	}
}
