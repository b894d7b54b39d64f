package engine

import "context"

// GenerateStream runs Generate on its own goroutine and returns a bounded
// token channel plus a single-shot result channel. The token channel is the
// explicit backpressure point between the native loop and the consumer: a
// slow consumer stalls generation once the buffer fills, it never grows an
// unbounded callback chain. Both channels are closed when the session ends;
// cancelling ctx stops generation with the tokens produced so far already
// delivered.
func (e *Engine) GenerateStream(ctx context.Context, m *Model, c *Context, req Request) (<-chan string, <-chan StreamResult) {
	tokenCh := make(chan string, e.streamBuf)
	resCh := make(chan StreamResult, 1)

	go func() {
		defer close(tokenCh)
		defer close(resCh)

		res, err := e.Generate(ctx, m, c, req, func(text string) error {
			select {
			case tokenCh <- text:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		resCh <- StreamResult{Result: res, Err: err}
	}()

	return tokenCh, resCh
}

// StreamResult pairs the terminal Result with the session error, delivered
// once on the result channel of GenerateStream.
type StreamResult struct {
	Result Result
	Err    error
}
