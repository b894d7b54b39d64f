//go:build llama

package engine

// cgo binding to the llama.cpp C API. Link directives expect libllama.so
// and the ggml libraries under bin/ next to the built Go binary, found via
// $ORIGIN rpath; headers come from a third_party/llama.cpp checkout.

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/llama.cpp/include -I${SRCDIR}/../../third_party/llama.cpp/ggml/include
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama -lm -lstdc++

#include <stdlib.h>
#include <stdbool.h>
#include <stdint.h>

typedef struct llama_model llama_model;
typedef struct llama_context llama_context;
typedef int32_t llama_token;
typedef int32_t llama_pos;
typedef int32_t llama_seq_id;

struct llama_model_params {
    int32_t n_gpu_layers;
    int32_t split_mode;
    int32_t main_gpu;
    const float * tensor_split;
    void * progress_callback_user_data;
    bool (* progress_callback)(float progress, void * user_data);
    void * kv_overrides;
    bool vocab_only;
    bool use_mmap;
    bool use_mlock;
    bool check_tensors;
};

struct llama_context_params {
    uint32_t n_ctx;
    uint32_t n_batch;
    uint32_t n_ubatch;
    uint32_t n_seq_max;
    int32_t n_threads;
    int32_t n_threads_batch;
    int32_t rope_scaling_type;
    int32_t pooling_type;
    int32_t attention_type;
    float rope_freq_base;
    float rope_freq_scale;
    float yarn_ext_factor;
    float yarn_attn_factor;
    float yarn_beta_fast;
    float yarn_beta_slow;
    uint32_t yarn_orig_ctx;
    float defrag_thold;
    void * cb_eval;
    void * cb_eval_user_data;
    int32_t type_k;
    int32_t type_v;
    bool logits_all;
    bool embeddings;
    bool offload_kqv;
    bool flash_attn;
    bool no_perf;
    void * abort_callback;
    void * abort_callback_data;
};

struct llama_batch {
    int32_t n_tokens;
    llama_token * token;
    float * embd;
    llama_pos * pos;
    int32_t * n_seq_id;
    llama_seq_id ** seq_id;
    int8_t * logits;
};

extern void llama_backend_init(void);
extern void llama_backend_free(void);
extern struct llama_model_params llama_model_default_params(void);
extern struct llama_context_params llama_context_default_params(void);
extern llama_model * llama_load_model_from_file(const char * path_model, struct llama_model_params params);
extern void llama_free_model(llama_model * model);
extern llama_context * llama_new_context_with_model(llama_model * model, struct llama_context_params params);
extern void llama_free(llama_context * ctx);
extern int32_t llama_n_vocab(const llama_model * model);
extern int32_t llama_tokenize(const llama_model * model, const char * text, int32_t text_len, llama_token * tokens, int32_t n_tokens_max, bool add_special, bool parse_special);
extern int32_t llama_token_to_piece(const llama_model * model, llama_token token, char * buf, int32_t length, int32_t lstrip, bool special);
extern bool llama_token_is_eog(const llama_model * model, llama_token token);
extern struct llama_batch llama_batch_init(int32_t n_tokens, int32_t embd, int32_t n_seq_max);
extern void llama_batch_free(struct llama_batch batch);
extern int32_t llama_decode(llama_context * ctx, struct llama_batch batch);
extern float * llama_get_logits_ith(llama_context * ctx, int32_t i);
extern bool llama_kv_cache_seq_rm(llama_context * ctx, llama_seq_id seq_id, llama_pos p0, llama_pos p1);
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

var llamaInitOnce sync.Once

// llamaBackend implements Backend over the llama.cpp C API.
type llamaBackend struct{}

// NewLlamaBackend returns the native llama.cpp backend when built with the
// 'llama' tag, and a fail-fast stub otherwise.
func NewLlamaBackend() Backend {
	llamaInitOnce.Do(func() { C.llama_backend_init() })
	return llamaBackend{}
}

func (llamaBackend) LoadModel(path string, params ModelParams) (NativeModel, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	mp := C.llama_model_default_params()
	mp.n_gpu_layers = C.int32_t(params.GPULayers)
	mp.use_mmap = C.bool(params.UseMMap)
	mp.use_mlock = C.bool(params.UseMLock)

	ptr := C.llama_load_model_from_file(cPath, mp)
	if ptr == nil {
		return nil, fmt.Errorf("llama_load_model_from_file returned null for %s", path)
	}
	return &llamaModel{ptr: ptr, threads: params.Threads}, nil
}

type llamaModel struct {
	ptr     *C.llama_model
	threads int
}

func (m *llamaModel) NewContext(params ContextParams) (NativeContext, error) {
	cp := C.llama_context_default_params()
	cp.n_ctx = C.uint32_t(params.NCtx)
	cp.n_batch = C.uint32_t(params.NBatch)
	cp.n_seq_max = 1
	threads := params.Threads
	if threads <= 0 {
		threads = m.threads
	}
	if threads > 0 {
		cp.n_threads = C.int32_t(threads)
		cp.n_threads_batch = C.int32_t(threads)
	}

	ptr := C.llama_new_context_with_model(m.ptr, cp)
	if ptr == nil {
		return nil, fmt.Errorf("llama_new_context_with_model returned null")
	}
	batch := C.llama_batch_init(C.int32_t(params.NBatch), 0, 1)
	return &llamaContext{ptr: ptr, batch: batch, nVocab: int(C.llama_n_vocab(m.ptr))}, nil
}

// Tokenize uses the two-pass protocol: the first call reports the true
// token count as a negative value when the guess buffer is too small, the
// second fills a buffer of exactly that size. One retry only.
func (m *llamaModel) Tokenize(text string, addSpecial, parseSpecial bool) ([]Token, error) {
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))

	maxTokens := len(text) + 32
	buf := make([]C.llama_token, maxTokens)
	n := C.llama_tokenize(m.ptr, cText, C.int32_t(len(text)), &buf[0], C.int32_t(maxTokens),
		C.bool(addSpecial), C.bool(parseSpecial))
	if n < 0 {
		maxTokens = int(-n)
		buf = make([]C.llama_token, maxTokens)
		n = C.llama_tokenize(m.ptr, cText, C.int32_t(len(text)), &buf[0], C.int32_t(maxTokens),
			C.bool(addSpecial), C.bool(parseSpecial))
		if n < 0 {
			return nil, fmt.Errorf("llama_tokenize failed with %d", int(n))
		}
	}
	out := make([]Token, int(n))
	for i := range out {
		out[i] = Token(buf[i])
	}
	return out, nil
}

func (m *llamaModel) TokenPiece(t Token) string {
	buf := make([]byte, 64)
	n := C.llama_token_to_piece(m.ptr, C.llama_token(t),
		(*C.char)(unsafe.Pointer(&buf[0])), C.int32_t(len(buf)), 0, false)
	if n < 0 {
		buf = make([]byte, -n)
		n = C.llama_token_to_piece(m.ptr, C.llama_token(t),
			(*C.char)(unsafe.Pointer(&buf[0])), C.int32_t(len(buf)), 0, false)
	}
	if n <= 0 {
		return ""
	}
	return string(buf[:n])
}

func (m *llamaModel) IsEOG(t Token) bool {
	return bool(C.llama_token_is_eog(m.ptr, C.llama_token(t)))
}

func (m *llamaModel) NVocab() int { return int(C.llama_n_vocab(m.ptr)) }

func (m *llamaModel) Free() {
	if m.ptr != nil {
		C.llama_free_model(m.ptr)
		m.ptr = nil
	}
}

type llamaContext struct {
	ptr    *C.llama_context
	batch  C.struct_llama_batch
	nVocab int
}

func (c *llamaContext) Decode(b *Batch) error {
	n := b.Len()
	c.batch.n_tokens = C.int32_t(n)
	for i := 0; i < n; i++ {
		batchSetToken(&c.batch, i, C.llama_token(b.Token(i)))
		batchSetPos(&c.batch, i, C.llama_pos(b.Pos(i)))
		batchSetNSeqID(&c.batch, i, 1)
		batchSetSeqID(&c.batch, i, 0, C.llama_seq_id(b.Seq(i)))
		want := C.int8_t(0)
		if b.WantLogits(i) {
			want = 1
		}
		batchSetLogits(&c.batch, i, want)
	}
	if rc := C.llama_decode(c.ptr, c.batch); rc != 0 {
		return fmt.Errorf("llama_decode failed with %d", int(rc))
	}
	return nil
}

func (c *llamaContext) Logits(i int) []float32 {
	ptr := C.llama_get_logits_ith(c.ptr, C.int32_t(i))
	if ptr == nil {
		return nil
	}
	out := make([]float32, c.nVocab)
	src := unsafe.Slice((*float32)(unsafe.Pointer(ptr)), c.nVocab)
	copy(out, src)
	return out
}

func (c *llamaContext) ClearCache(seq int) {
	C.llama_kv_cache_seq_rm(c.ptr, C.llama_seq_id(seq), -1, -1)
}

func (c *llamaContext) Free() {
	if c.ptr != nil {
		C.llama_batch_free(c.batch)
		C.llama_free(c.ptr)
		c.ptr = nil
	}
}

// The llama_batch arrays are raw C allocations sized by llama_batch_init;
// index into them with pointer arithmetic.

func batchSetToken(batch *C.struct_llama_batch, i int, token C.llama_token) {
	ptr := (*C.llama_token)(unsafe.Pointer(uintptr(unsafe.Pointer(batch.token)) + uintptr(i)*unsafe.Sizeof(C.llama_token(0))))
	*ptr = token
}

func batchSetPos(batch *C.struct_llama_batch, i int, pos C.llama_pos) {
	ptr := (*C.llama_pos)(unsafe.Pointer(uintptr(unsafe.Pointer(batch.pos)) + uintptr(i)*unsafe.Sizeof(C.llama_pos(0))))
	*ptr = pos
}

func batchSetNSeqID(batch *C.struct_llama_batch, i int, nSeqID C.int32_t) {
	ptr := (*C.int32_t)(unsafe.Pointer(uintptr(unsafe.Pointer(batch.n_seq_id)) + uintptr(i)*unsafe.Sizeof(C.int32_t(0))))
	*ptr = nSeqID
}

func batchSetSeqID(batch *C.struct_llama_batch, i int, j int, seqID C.llama_seq_id) {
	outerPtr := (**C.llama_seq_id)(unsafe.Pointer(uintptr(unsafe.Pointer(batch.seq_id)) + uintptr(i)*unsafe.Sizeof((*C.llama_seq_id)(nil))))
	innerPtr := (*C.llama_seq_id)(unsafe.Pointer(uintptr(unsafe.Pointer(*outerPtr)) + uintptr(j)*unsafe.Sizeof(C.llama_seq_id(0))))
	*innerPtr = seqID
}

func batchSetLogits(batch *C.struct_llama_batch, i int, logits C.int8_t) {
	ptr := (*C.int8_t)(unsafe.Pointer(uintptr(unsafe.Pointer(batch.logits)) + uintptr(i)*unsafe.Sizeof(C.int8_t(0))))
	*ptr = logits
}
