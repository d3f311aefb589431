package eventbus

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func TestDispatchOrderDescendingPriorityThenRegistration(t *testing.T) {
	bus := New(zerolog.New(io.Discard))

	var order []string
	bus.On("e", func(any) { order = append(order, "low") }, WithPriority(0))
	bus.On("e", func(any) { order = append(order, "high") }, WithPriority(10))
	bus.On("e", func(any) { order = append(order, "mid-a") }, WithPriority(5))
	bus.On("e", func(any) { order = append(order, "mid-b") }, WithPriority(5))

	bus.Emit("e", nil)

	want := []string{"high", "mid-a", "mid-b", "low"}
	if len(order) != len(want) {
		t.Fatalf("dispatch order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", order, want)
		}
	}
}

func TestHandlerPanicDoesNotAbortDispatch(t *testing.T) {
	bus := New(zerolog.New(io.Discard))

	var ranAfterPanic bool
	bus.On("e", func(any) { panic("boom") }, WithPriority(10))
	bus.On("e", func(any) { ranAfterPanic = true }, WithPriority(0))

	bus.Emit("e", nil)

	if !ranAfterPanic {
		t.Fatal("expected handler after the panicking one to still run")
	}
}

func TestEmitPassesPayload(t *testing.T) {
	bus := New(zerolog.New(io.Discard))

	var got any
	bus.On("e", func(data any) { got = data })
	bus.Emit("e", 42)

	if got != 42 {
		t.Fatalf("handler received %v, want 42", got)
	}
}

func TestEmitUnsubscribedEventIsNoOp(t *testing.T) {
	bus := New(zerolog.New(io.Discard))
	bus.Emit("nothing-subscribed", nil) // must not panic
}
