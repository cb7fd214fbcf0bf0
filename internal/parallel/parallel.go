// Package parallel provides the worker fan-out used to spread a batch's
// per-sample gradient computation across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16,
	}
}

// NumChunks returns how many chunks ForChunks will split n items into, so
// callers can pre-allocate one private accumulator per chunk.
func (cfg Config) NumChunks(n int) int {
	if !cfg.Enabled || n < cfg.MinChunkSize || cfg.NumWorkers < 2 {
		return 1
	}
	chunks := (n + cfg.chunkSize(n) - 1) / cfg.chunkSize(n)
	return chunks
}

func (cfg Config) chunkSize(n int) int {
	size := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if size < cfg.MinChunkSize {
		size = cfg.MinChunkSize
	}
	return size
}

// ForChunks splits [0, n) into contiguous chunks and executes
// f(chunk, start, end) for each, concurrently when the config allows it.
// Chunk indices are dense in [0, NumChunks(n)).
//
// ForChunks returns only after every chunk has finished, which is the
// batch-boundary synchronization point: each worker writes exclusively to
// the accumulator indexed by its chunk, and the caller merges the
// accumulators after the wait.
func ForChunks(n int, cfg Config, f func(chunk, start, end int)) {
	if cfg.NumChunks(n) == 1 {
		// Sequential fallback.
		f(0, 0, n)
		return
	}

	chunkSize := cfg.chunkSize(n)
	var wg sync.WaitGroup
	chunk := 0
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(c, s, e int) {
			defer wg.Done()
			f(c, s, e)
		}(chunk, start, end)
		chunk++
	}
	wg.Wait()
}
