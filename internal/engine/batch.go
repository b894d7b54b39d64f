package engine

// Batch accumulates (token, position, sequence, want-logits) tuples for one
// decode call. It is reused across calls via Clear; Add past the configured
// capacity is a programmer error surfaced as ErrCapacityExceeded.
type Batch struct {
	capacity int
	tokens   []Token
	pos      []int32
	seq      []int32
	logits   []bool
}

// NewBatch creates a batch with the given capacity (minimum 1).
func NewBatch(capacity int) *Batch {
	if capacity < 1 {
		capacity = 1
	}
	return &Batch{
		capacity: capacity,
		tokens:   make([]Token, 0, capacity),
		pos:      make([]int32, 0, capacity),
		seq:      make([]int32, 0, capacity),
		logits:   make([]bool, 0, capacity),
	}
}

// Clear resets the token count to zero. Capacity is retained.
func (b *Batch) Clear() {
	b.tokens = b.tokens[:0]
	b.pos = b.pos[:0]
	b.seq = b.seq[:0]
	b.logits = b.logits[:0]
}

// Add appends one entry. wantLogits marks the entry whose next-token
// distribution the caller will read after Decode; normally only the last
// token of a flushed batch sets it.
func (b *Batch) Add(t Token, pos, seq int, wantLogits bool) error {
	if len(b.tokens) >= b.capacity {
		return ErrCapacityExceeded(b.capacity)
	}
	b.tokens = append(b.tokens, t)
	b.pos = append(b.pos, int32(pos))
	b.seq = append(b.seq, int32(seq))
	b.logits = append(b.logits, wantLogits)
	return nil
}

// Len returns the number of entries currently in the batch.
func (b *Batch) Len() int { return len(b.tokens) }

// Capacity returns the configured maximum number of entries.
func (b *Batch) Capacity() int { return b.capacity }

// Token returns the token at row i.
func (b *Batch) Token(i int) Token { return b.tokens[i] }

// Pos returns the KV cache position at row i.
func (b *Batch) Pos(i int) int { return int(b.pos[i]) }

// Seq returns the sequence id at row i.
func (b *Batch) Seq(i int) int { return int(b.seq[i]) }

// WantLogits reports whether row i requested logits.
func (b *Batch) WantLogits(i int) bool { return b.logits[i] }

// LogitsRow returns the index of the last row that requested logits, or -1.
func (b *Batch) LogitsRow() int {
	for i := len(b.logits) - 1; i >= 0; i-- {
		if b.logits[i] {
			return i
		}
	}
	return -1
}
