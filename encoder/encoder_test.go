package encoder

import (
	"sync"
	"testing"
)

func TestTurnCountsDetents(t *testing.T) {
	var s State
	s.Turn(true, 100)
	s.Turn(true, 110)
	s.Turn(false, 120)

	snap, ok := s.Take()
	if !ok {
		t.Fatal("expected a pending turn")
	}
	if snap.Position != 1 || snap.Delta != 1 || snap.Right {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	if _, ok := s.Take(); ok {
		t.Error("expected the changed flag to be cleared")
	}
}

func TestDeltaRestartsAfterTake(t *testing.T) {
	var s State
	s.Turn(true, 100)
	s.Take()
	s.Turn(true, 200)
	s.Turn(true, 300)

	snap, _ := s.Take()
	if snap.Position != 3 || snap.Delta != 2 {
		t.Errorf("expected position 3 delta 2, got %+v", snap)
	}
}

func TestPositionResetsAfterIdle(t *testing.T) {
	var s State
	for i := uint64(0); i < 4; i++ {
		s.Turn(true, 1000+i)
	}
	s.Take()

	s.Turn(false, 1003+PositionTimeout)
	snap, _ := s.Take()
	if snap.Position != -1 {
		t.Errorf("expected position to restart at -1, got %d", snap.Position)
	}
}

func TestPressDebounce(t *testing.T) {
	tests := []struct {
		at   uint64
		want bool
	}{
		{0, true},
		{150, false},
		{199, false},
		{200, true},
		{450, true},
	}
	var s State
	for _, tc := range tests {
		if got := s.Press(tc.at); got != tc.want {
			t.Errorf("press at %d: expected %v, got %v", tc.at, tc.want, got)
		}
	}
	if !s.TakePress() {
		t.Error("expected a pending press")
	}
	if s.TakePress() {
		t.Error("expected press to be consumed")
	}
}

func TestConcurrentTurnsAreNotLost(t *testing.T) {
	var s State
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Turn(true, 10)
			}
		}()
	}

	var total int
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if snap, ok := s.Take(); ok {
			total += int(snap.Delta)
		}
		select {
		case <-done:
			if snap, ok := s.Take(); ok {
				total += int(snap.Delta)
			}
			if total != 400 {
				t.Errorf("expected 400 detents, got %d", total)
			}
			return
		default:
		}
	}
}

type recorder struct {
	turns   []TurnEvent
	presses int
}

func (r *recorder) OnTurn(e TurnEvent) { r.turns = append(r.turns, e) }

func (r *recorder) OnPress() { r.presses++ }

func TestUpdatePublishes(t *testing.T) {
	var s State
	e := New(&s)
	rec := &recorder{}
	e.Subscribe(rec)

	e.Update()
	if len(rec.turns) != 0 || rec.presses != 0 {
		t.Fatal("expected nothing published while idle")
	}

	s.Turn(false, 10)
	s.Press(20)
	e.Update()
	if len(rec.turns) != 1 || rec.turns[0].Delta != -1 {
		t.Fatalf("expected one left turn, got %+v", rec.turns)
	}
	if rec.presses != 1 {
		t.Errorf("expected one press, got %d", rec.presses)
	}
}
