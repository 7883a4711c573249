package loop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureSettlesOnce(t *testing.T) {
	l := New()
	f := NewFuture[int](l)
	if !f.Resolve(1) {
		t.Fatal("first Resolve returned false")
	}
	if f.Resolve(2) || f.Reject(errors.New("late")) {
		t.Fatal("second settle returned true")
	}
	v, err, ok := f.Result()
	if !ok || err != nil || v != 1 {
		t.Fatalf("Result = %d, %v, %v", v, err, ok)
	}
}

func TestFutureThenRunsAsMicrotask(t *testing.T) {
	l := New()
	f := NewFuture[string](l)
	var got []string

	f.Then(func(v string, err error) { got = append(got, "before:"+v) })
	f.Resolve("x")
	if len(got) != 0 {
		t.Fatal("Then callback ran synchronously")
	}
	f.Then(func(v string, err error) { got = append(got, "after:"+v) })

	if err := l.RunUntilIdle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "before:x" || got[1] != "after:x" {
		t.Fatalf("got %v", got)
	}
}

func TestPipeForwardsRejection(t *testing.T) {
	l := New()
	src := NewFuture[int](l)
	dst := NewFuture[int](l)
	Pipe(src, dst)

	boom := errors.New("boom")
	src.Reject(boom)
	if err := l.RunUntilIdle(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err, ok := dst.Result()
	if !ok || !errors.Is(err, boom) {
		t.Fatalf("dst = %v, %v", err, ok)
	}
}

func TestFutureWait(t *testing.T) {
	l := New()
	f := NewFuture[int](l)
	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = l.Submit(func() { f.Resolve(7) })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	v, err := f.Wait(ctx)
	if err != nil || v != 7 {
		t.Fatalf("Wait = %d, %v", v, err)
	}

	pending := NewFuture[int](l)
	short, stop := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer stop()
	if _, err := pending.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait on pending = %v", err)
	}
}
