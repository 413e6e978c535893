package recall

import (
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Sampler 从候选池中无放回均匀采样。
// 注入的随机源不是并发安全的，由 mu 保护；未注入时使用全局随机源。
type Sampler struct {
	mu  sync.Mutex
	src rand.Source
}

// NewSampler 创建采样器，src 为 nil 时使用全局随机源
func NewSampler(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// Sample 返回 pool 中 n 个互不重复的元素；n 超过 pool 大小时截断为 len(pool)。
func (s *Sampler) Sample(pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return []string{}
	}

	idxs := make([]int, n)
	if s == nil || s.src == nil {
		sampleuv.WithoutReplacement(idxs, len(pool), nil)
	} else {
		s.mu.Lock()
		sampleuv.WithoutReplacement(idxs, len(pool), s.src)
		s.mu.Unlock()
	}

	out := make([]string, n)
	for i, idx := range idxs {
		out[i] = pool[idx]
	}
	return out
}
