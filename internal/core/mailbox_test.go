package core

import (
	"testing"
	"time"
)

func TestMailbox_DeliversInOrder(t *testing.T) {
	box := newMailbox()
	const n = 1000

	go func() {
		for i := range n {
			box.Put(ProgressReported{Progress: Progress{ValidatedRows: i}})
		}
		box.Close()
	}()

	var got []int
	box.Drain(func(m Message) {
		got = append(got, m.(ProgressReported).Progress.ValidatedRows)
	})

	if len(got) != n {
		t.Fatalf("received %d messages, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("message %d = %d, out of order", i, v)
		}
	}
}

func TestMailbox_PutNeverBlocks(t *testing.T) {
	box := newMailbox()

	done := make(chan struct{})
	go func() {
		for range 10000 {
			box.Put(StatusChanged{Phase: PhaseProcessStarted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Put blocked without a consumer")
	}
}

func TestMailbox_CloseDeliversQueuedAndDropsLater(t *testing.T) {
	box := newMailbox()
	box.Put(StatusChanged{Phase: PhaseProcessStarted})
	box.Put(Completed{InsertedCount: 1})
	box.Close()
	box.Put(Failed{})

	var got []Message
	box.Drain(func(m Message) { got = append(got, m) })

	if len(got) != 2 {
		t.Fatalf("received %d messages, want 2", len(got))
	}
	if _, ok := got[1].(Completed); !ok {
		t.Errorf("last message = %T, want Completed", got[1])
	}
}

func TestMailbox_DrainReturnsOnEmptyClose(t *testing.T) {
	box := newMailbox()

	done := make(chan struct{})
	go func() {
		box.Drain(func(Message) { t.Error("unexpected message") })
		close(done)
	}()
	box.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Drain did not return after Close")
	}
}
