package quiz

import (
	"context"
	"testing"
)

func TestFetchGuardAcceptsLatestOnly(t *testing.T) {
	var g FetchGuard

	ctxA, a := g.Begin(context.Background(), "cardiology")
	_, b := g.Begin(context.Background(), "neurology")

	if ctxA.Err() == nil {
		t.Fatal("superseded fetch context was not cancelled")
	}
	if g.Accept(a) {
		t.Fatal("stale ticket accepted")
	}
	if !g.Accept(b) {
		t.Fatal("latest ticket rejected")
	}
	if g.Accept(b) {
		t.Fatal("ticket accepted twice")
	}
}

func TestFetchGuardSameSelectorReissued(t *testing.T) {
	var g FetchGuard

	_, first := g.Begin(context.Background(), "all")
	_, second := g.Begin(context.Background(), "all")

	if g.Accept(first) {
		t.Fatal("earlier fetch for the same selector accepted")
	}
	if !g.Accept(second) {
		t.Fatal("latest fetch rejected")
	}
}

func TestFetchGuardCancel(t *testing.T) {
	var g FetchGuard

	ctx, tk := g.Begin(context.Background(), "all")
	g.Cancel()

	if ctx.Err() == nil {
		t.Fatal("Cancel did not cancel the fetch context")
	}
	if g.Accept(tk) {
		t.Fatal("cancelled ticket accepted")
	}
}

func TestFetchGuardCommitAfterSupersede(t *testing.T) {
	var g FetchGuard

	_, a := g.Begin(context.Background(), "cardiology")
	if !g.Accept(a) {
		t.Fatal("latest ticket rejected")
	}
	// A second start begins while the first is still launching its run.
	_, b := g.Begin(context.Background(), "neurology")
	if !g.Accept(b) {
		t.Fatal("second ticket rejected")
	}

	var current string
	if !g.Commit(b, func() { current = "run-b" }) {
		t.Fatal("latest ticket could not commit")
	}
	if g.Commit(a, func() { current = "run-a" }) {
		t.Fatal("superseded ticket committed")
	}
	if current != "run-b" {
		t.Fatalf("current run %q, want run-b", current)
	}
}

func TestFetchGuardCommitAfterCancel(t *testing.T) {
	var g FetchGuard

	_, tk := g.Begin(context.Background(), "all")
	if !g.Accept(tk) {
		t.Fatal("ticket rejected")
	}
	g.Cancel()

	ran := false
	if g.Commit(tk, func() { ran = true }) || ran {
		t.Fatal("ticket committed after Cancel")
	}
}
