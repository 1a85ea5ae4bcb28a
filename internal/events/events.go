package events

import (
	"sync"

	"github.com/lojf/ministry/internal/models"
)

// Attendance is published after a scan changed an attendance row.
type Attendance struct {
	Record models.Attendance
	Action string // clock_in | clock_out
}

// Payment is published after a payment and its ledger update committed.
type Payment struct {
	Payment models.Payment
}

// Bus fans committed changes out to in-process subscribers. Handlers run
// synchronously on the publishing goroutine after the transaction commits.
type Bus struct {
	mu         sync.RWMutex
	attendance []func(Attendance)
	payment    []func(Payment)
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) OnAttendance(fn func(Attendance)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attendance = append(b.attendance, fn)
}

func (b *Bus) OnPayment(fn func(Payment)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payment = append(b.payment, fn)
}

func (b *Bus) PublishAttendance(ev Attendance) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := b.attendance
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (b *Bus) PublishPayment(ev Payment) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := b.payment
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
