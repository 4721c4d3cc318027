package log

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// A Handler writes records produced by a Logger.
type Handler interface {
	Log(r *Record) error
}

type funcHandler func(r *Record) error

func (h funcHandler) Log(r *Record) error { return h(r) }

// FuncHandler adapts a function to the Handler interface.
func FuncHandler(fn func(r *Record) error) Handler {
	return funcHandler(fn)
}

// StreamHandler writes formatted records to wr, serialized by a mutex so
// concurrent goroutines do not interleave output.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	h := FuncHandler(func(r *Record) error {
		_, err := wr.Write(fmtr.Format(r))
		return err
	})
	return SyncHandler(h)
}

// SyncHandler guards h with a mutex.
func SyncHandler(h Handler) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		return h.Log(r)
	})
}

// LvlFilterHandler drops records above maxLvl.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if r.Lvl <= maxLvl {
			return h.Log(r)
		}
		return nil
	})
}

// CallerFileHandler appends the file:line of the call site to the context.
func CallerFileHandler(h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		r.Ctx = append(r.Ctx, "caller", fmt.Sprint(r.Call))
		return h.Log(r)
	})
}

// DiscardHandler drops everything.
func DiscardHandler() Handler {
	return FuncHandler(func(r *Record) error { return nil })
}

// swapHandler lets SetHandler race safely against in-flight writes.
type swapHandler struct {
	handler atomic.Value
}

func (h *swapHandler) Log(r *Record) error {
	return (*h.handler.Load().(*Handler)).Log(r)
}

func (h *swapHandler) Swap(newHandler Handler) {
	h.handler.Store(&newHandler)
}

func (h *swapHandler) Get() Handler {
	return *h.handler.Load().(*Handler)
}
