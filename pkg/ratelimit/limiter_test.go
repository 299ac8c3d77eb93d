package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	time.Sleep(250 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	time.Sleep(250 * time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}

	sw.Reset()
	if len(sw.requests) != 0 {
		t.Error("Expected requests to be cleared after reset")
	}
}

func TestWaitBlocksUntilAllowed(t *testing.T) {
	limiters := map[string]Limiter{
		"token bucket":   NewTokenBucket(1, 100*time.Millisecond),
		"sliding window": NewSlidingWindow(1, 100*time.Millisecond),
	}

	for name, l := range limiters {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := l.Wait(ctx); err != nil {
				t.Fatalf("first Wait: %v", err)
			}

			start := time.Now()
			if err := l.Wait(ctx); err != nil {
				t.Fatalf("second Wait: %v", err)
			}
			if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
				t.Errorf("second Wait returned after %v, expected it to block", elapsed)
			}
		})
	}
}

func TestWaitHonoursContext(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	sw.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sw.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestNew(t *testing.T) {
	l, err := New(StrategySlidingWindow, 0)
	if err != nil || l != nil {
		t.Errorf("zero rate should disable the limiter, got %v, %v", l, err)
	}

	l, err = New("", 30)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := l.(*SlidingWindow); !ok {
		t.Errorf("Expected sliding window by default, got %T", l)
	}

	l, err = New(StrategyTokenBucket, 30)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tb, ok := l.(*TokenBucket); !ok || tb.capacity != 30 || tb.refillPeriod != time.Minute {
		t.Errorf("Expected 30/min token bucket, got %#v", l)
	}

	if _, err := New("leaky", 10); err == nil {
		t.Error("Expected error for unknown strategy")
	}
	if _, err := New("", -1); err == nil {
		t.Error("Expected error for negative rate")
	}
}
