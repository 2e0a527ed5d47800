// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package async provides a single-resolution future with sequential
// (OrElse, Then) and concurrent (Join) composition.
package async

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📦 Result is the settled value of a future
type Result[T any] struct {
	Value T
	Err   error
}

// 🔮 Future resolves exactly once with either a value or an error
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	res       Result[T]
	callbacks []func(Result[T])
}

// Resolver settles a future. Only the first call has an effect; it reports
// whether this call was the one that settled it.
type Resolver[T any] func(value T, err error) bool

// 🏭 NewPromise returns an unsettled future and its resolver
func NewPromise[T any]() (*Future[T], Resolver[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a future already settled with value
func Resolved[T any](value T) *Future[T] {
	f, resolve := NewPromise[T]()
	resolve(value, nil)
	return f
}

// Failed returns a future already settled with err
func Failed[T any](err error) *Future[T] {
	f, resolve := NewPromise[T]()
	var zero T
	resolve(zero, err)
	return f
}

// Go runs fn on its own goroutine and settles the future with its result.
// A panic in fn settles the future with an error.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve := NewPromise[T]()
	go func() {
		resolve(call(fn))
	}()
	return f
}

// call runs fn and turns a panic into an error. Callbacks run by resolve stay
// outside the recover.
func call[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, errors.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (f *Future[T]) resolve(value T, err error) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.res = Result[T]{Value: value, Err: err}
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(f.res)
	}
	return true
}

// 🔔 OnDone registers cb to run once the future settles. If it has already
// settled, cb runs immediately on the calling goroutine.
func (f *Future[T]) OnDone(cb func(Result[T])) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	res := f.res
	f.mu.Unlock()
	cb(res)
}

// Done is closed when the future settles
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the settled result, and false while still pending
func (f *Future[T]) Result() (Result[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res, f.resolved
}

// Wait blocks until the future settles or ctx is done
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		res, _ := f.Result()
		return res.Value, res.Err
	case <-ctx.Done():
		var zero T
		return zero, errors.Errorf("waiting for future: %w", ctx.Err())
	}
}

// ➡️ Then maps a successful value. Errors pass through unchanged and a panic
// in fn fails the returned future.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out, resolve := NewPromise[U]()
	f.OnDone(func(r Result[T]) {
		if r.Err != nil {
			var zero U
			resolve(zero, r.Err)
			return
		}
		resolve(call(func() (U, error) { return fn(r.Value) }))
	})
	return out
}

// 🔁 OrElse starts next only after f has failed, and settles with whatever
// next settles with. A successful f is passed through and next is never called.
func OrElse[T any](f *Future[T], next func(error) *Future[T]) *Future[T] {
	out, resolve := NewPromise[T]()
	f.OnDone(func(r Result[T]) {
		if r.Err == nil {
			resolve(r.Value, nil)
			return
		}
		next(r.Err).OnDone(func(nr Result[T]) {
			resolve(nr.Value, nr.Err)
		})
	})
	return out
}

// 🤝 Join settles once every future has settled. Values keep the argument
// order regardless of which future settled first. The first error observed
// fails the join, but only after all futures settled.
func Join[T any](futures ...*Future[T]) *Future[[]T] {
	out, resolve := NewPromise[[]T]()
	values := make([]T, len(futures))

	var g errgroup.Group
	for i, f := range futures {
		g.Go(func() error {
			<-f.Done()
			r, _ := f.Result()
			values[i] = r.Value
			return r.Err
		})
	}

	go func() {
		if err := g.Wait(); err != nil {
			resolve(nil, err)
			return
		}
		resolve(values, nil)
	}()

	return out
}
