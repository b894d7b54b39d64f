package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestGenerateStreamDeliversAllTokens(t *testing.T) {
	b, m, c, err := newTestHandles(64, 8)
	if err != nil {
		t.Fatal(err)
	}
	b.last.script = scriptTokens("streamed")

	e := New(Config{Logger: zerolog.Nop()})
	tokenCh, resCh := e.GenerateStream(context.Background(), m, c, Request{
		Prompt:    "hi",
		MaxTokens: 100,
	})

	var sb strings.Builder
	for tok := range tokenCh {
		sb.WriteString(tok)
	}
	sr, ok := <-resCh
	if !ok {
		t.Fatal("result channel closed without a result")
	}
	if sr.Err != nil {
		t.Fatalf("stream err: %v", sr.Err)
	}
	if sr.Result.State != StateCompleted || sr.Result.FinishReason != FinishStop {
		t.Fatalf("state=%s reason=%s", sr.Result.State, sr.Result.FinishReason)
	}
	if sb.String() != "streamed" || sr.Result.Text != "streamed" {
		t.Fatalf("streamed=%q result=%q", sb.String(), sr.Result.Text)
	}
	if _, open := <-resCh; open {
		t.Fatal("result channel must be closed after delivery")
	}
}

func TestGenerateStreamContextCancel(t *testing.T) {
	b, m, c, err := newTestHandles(256, 8)
	if err != nil {
		t.Fatal(err)
	}
	b.last.script = scriptTokens(strings.Repeat("x", 200))

	// Buffer of 1 so the producer blocks on the channel instead of racing
	// ahead of the consumer.
	e := New(Config{Logger: zerolog.Nop(), StreamBuffer: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokenCh, resCh := e.GenerateStream(ctx, m, c, Request{
		Prompt:    "hi",
		MaxTokens: 200,
	})

	received := 0
	for range tokenCh {
		received++
		if received == 2 {
			cancel()
		}
	}
	var sr StreamResult
	select {
	case sr = <-resCh:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate after cancel")
	}
	if sr.Err != nil {
		t.Fatalf("cancellation is not an error: %v", sr.Err)
	}
	if sr.Result.State != StateCancelled || sr.Result.FinishReason != FinishCancel {
		t.Fatalf("state=%s reason=%s", sr.Result.State, sr.Result.FinishReason)
	}
	if received >= 200 {
		t.Fatalf("stream did not stop early: %d tokens", received)
	}
	if e.IsGenerating() {
		t.Fatal("engine must be idle after the stream ends")
	}
}
