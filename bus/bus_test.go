package bus

import (
	"reflect"
	"testing"
)

func TestPublishOrder(t *testing.T) {
	var f Feed[int]
	var got []string

	f.Subscribe(func(v int) { got = append(got, "first") })
	f.Subscribe(func(v int) { got = append(got, "second") })
	f.Subscribe(nil)

	f.Publish(1)

	want := []string{"first", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if f.Len() != 2 {
		t.Errorf("expected 2 subscribers, got %d", f.Len())
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	var f Feed[string]
	f.Publish("ignored")
}

func TestNestedPublishDropped(t *testing.T) {
	f := Feed[int]{Name: "loop"}
	calls := 0
	f.Subscribe(func(v int) {
		calls++
		f.Publish(v + 1)
	})

	f.Publish(0)
	if calls != 1 {
		t.Errorf("expected one delivery, got %d", calls)
	}

	f.Publish(0)
	if calls != 2 {
		t.Errorf("expected feed usable after drop, got %d deliveries", calls)
	}
}

func TestChainAcrossFeeds(t *testing.T) {
	var a Feed[int]
	var b Feed[int]
	var seen []int

	a.Subscribe(func(v int) { b.Publish(v * 10) })
	b.Subscribe(func(v int) { seen = append(seen, v) })

	a.Publish(4)
	if !reflect.DeepEqual(seen, []int{40}) {
		t.Errorf("expected [40], got %v", seen)
	}
}
