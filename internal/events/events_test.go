package events

import (
	"testing"

	"github.com/lojf/ministry/internal/models"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.OnAttendance(func(ev Attendance) { got = append(got, "a1:"+ev.Action) })
	bus.OnAttendance(func(ev Attendance) { got = append(got, "a2:"+ev.Action) })
	bus.OnPayment(func(ev Payment) { got = append(got, "p:"+ev.Payment.ReceiptNumber) })

	bus.PublishAttendance(Attendance{Action: "clock_in"})
	bus.PublishPayment(Payment{Payment: models.Payment{ReceiptNumber: "RCT-1"}})

	want := []string{"a1:clock_in", "a2:clock_in", "p:RCT-1"}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNilBusIsNoop(t *testing.T) {
	var bus *Bus
	bus.PublishAttendance(Attendance{})
	bus.PublishPayment(Payment{})
}
