package gdelt

import (
	"context"
	"errors"
	"testing"
)

func TestStreamCollect(t *testing.T) {
	st := newStream[int](4, func() {})
	go func() {
		for i := 1; i <= 3; i++ {
			st.recs <- i
		}
		st.finish([]FailedRequest{{URL: "http://x/archive.zip"}}, nil)
	}()

	res, err := collect(st)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(res.Data) != 3 || res.Data[0] != 1 || res.Data[2] != 3 {
		t.Fatalf("data = %v", res.Data)
	}
	if res.Complete() {
		t.Fatal("a result with failures is not complete")
	}
	if len(res.Failed) != 1 || res.Failed[0].URL != "http://x/archive.zip" {
		t.Fatalf("failed = %+v", res.Failed)
	}
}

func TestStreamTerminalError(t *testing.T) {
	sentinel := errors.New("boom")
	st := newStream[int](1, func() {})
	go func() {
		st.recs <- 1
		st.finish(nil, sentinel)
	}()

	if _, err := collect(st); !errors.Is(err, sentinel) {
		t.Fatalf("collect err = %v, want sentinel", err)
	}
}

func TestStreamIteration(t *testing.T) {
	st := newStream[string](2, func() {})
	go func() {
		st.recs <- "a"
		st.recs <- "b"
		st.finish(nil, nil)
	}()

	var got []string
	for st.Next() {
		got = append(got, st.Record())
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
	if st.Err() != nil {
		t.Fatalf("err = %v", st.Err())
	}
}

func TestStreamClose_UnblocksProducer(t *testing.T) {
	cancelled := make(chan struct{})
	st := newStream[int](0, func() { close(cancelled) })
	go func() {
		<-cancelled
		st.finish(nil, context.Canceled)
	}()

	st.Close()
	if st.Next() {
		t.Fatal("closed stream should not yield")
	}
	if !errors.Is(st.Err(), context.Canceled) {
		t.Fatalf("err = %v", st.Err())
	}
}
