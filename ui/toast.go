package ui

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

type Toast struct {
	ID      string    `json:"id"`
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
	Expires time.Time `json:"expires"`
}

// Toasts is the process-wide stack of transient notifications. It satisfies
// the negotiation Notifier.
type Toasts struct {
	mu        sync.Mutex
	items     []Toast
	ttl       map[ToastKind]time.Duration
	now       func() time.Time
	listeners []func(Toast)
}

func NewToasts() *Toasts {
	return &Toasts{
		ttl: map[ToastKind]time.Duration{
			ToastSuccess: 2 * time.Second,
			ToastError:   4 * time.Second,
			ToastInfo:    4 * time.Second,
		},
		now: time.Now,
	}
}

// OnPush registers fn for every new toast.
func (t *Toasts) OnPush(fn func(Toast)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

func (t *Toasts) Push(kind ToastKind, msg string) Toast {
	t.mu.Lock()
	now := t.now()
	toast := Toast{ID: uuid.NewString(), Kind: kind, Message: msg, Expires: now.Add(t.ttl[kind])}
	t.items = append(t.prune(now), toast)
	listeners := append([]func(Toast){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(toast)
	}
	return toast
}

func (t *Toasts) Error(msg string)   { t.Push(ToastError, msg) }
func (t *Toasts) Success(msg string) { t.Push(ToastSuccess, msg) }
func (t *Toasts) Info(msg string)    { t.Push(ToastInfo, msg) }

// Active returns the toasts not yet expired, oldest first.
func (t *Toasts) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = t.prune(t.now())
	return append([]Toast(nil), t.items...)
}

func (t *Toasts) Dismiss(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, it := range t.items {
		if it.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

func (t *Toasts) prune(now time.Time) []Toast {
	kept := t.items[:0]
	for _, it := range t.items {
		if now.Before(it.Expires) {
			kept = append(kept, it)
		}
	}
	return kept
}

// Render stacks the active toasts, newest last.
func (t *Toasts) Render(th Theme) string {
	var out string
	for i, it := range t.Active() {
		if i > 0 {
			out += "\n"
		}
		switch it.Kind {
		case ToastError:
			out += th.Error.Render("✖ " + it.Message)
		case ToastSuccess:
			out += th.Success.Render("✔ " + it.Message)
		default:
			out += th.Info.Render("• " + it.Message)
		}
	}
	return out
}
