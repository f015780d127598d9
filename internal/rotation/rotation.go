// Package rotation selects which wallpaper file is next, in sequential
// or shuffled order.
package rotation

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"
)

// ErrNoFiles is returned when an advance is requested with an empty
// file list.
var ErrNoFiles = errors.New("no files were provided")

// Engine owns the rotation cursor and the shuffle permutation. It is
// not safe for concurrent use; the daemon drives it from its single
// scheduling loop.
type Engine struct {
	files   []string
	cursor  int
	perm    []int
	shuffle bool
	rng     *rand.Rand

	current    string
	hasCurrent bool
}

// New creates an engine with a process-lifetime random source seeded
// once from the OS entropy pool. Shuffles over the engine's lifetime
// are drawn from this one continuing stream.
func New() *Engine {
	var seed [8]byte
	// A failed entropy read leaves a zero seed; rotation still works,
	// just with a predictable shuffle order.
	_, _ = crand.Read(seed[:])
	return &Engine{
		rng: rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))),
	}
}

// Len returns the number of files in rotation.
func (e *Engine) Len() int {
	return len(e.files)
}

// Files returns the current file list.
func (e *Engine) Files() []string {
	return e.files
}

// SetFiles replaces the file list. The cursor is taken modulo the new
// length and the shuffle permutation is invalidated.
func (e *Engine) SetFiles(files []string) {
	e.files = files
	e.perm = nil
	if len(files) == 0 {
		e.cursor = 0
		return
	}
	e.cursor %= len(files)
}

// SetShuffle toggles shuffle mode. Turning shuffle on regenerates the
// permutation.
func (e *Engine) SetShuffle(on bool) {
	e.shuffle = on
	if on {
		e.regenerate()
	}
}

// Shuffle reports whether shuffle mode is on.
func (e *Engine) Shuffle() bool {
	return e.shuffle
}

// Next returns the next file index and path and advances the cursor.
func (e *Engine) Next() (int, string, error) {
	if len(e.files) == 0 {
		return 0, "", ErrNoFiles
	}

	index := e.cursor
	if e.shuffle {
		if len(e.perm) != len(e.files) || e.cursor == 0 {
			e.regenerate()
		}
		index = e.perm[e.cursor]
	}

	e.cursor = (e.cursor + 1) % len(e.files)
	return index, e.files[index], nil
}

// MarkApplied records path as the last successfully applied wallpaper.
func (e *Engine) MarkApplied(path string) {
	e.current = path
	e.hasCurrent = true
}

// Current returns the last successfully applied wallpaper path. The
// second result is false before any successful application.
func (e *Engine) Current() (string, bool) {
	return e.current, e.hasCurrent
}

// regenerate rebuilds the permutation with a Fisher-Yates shuffle.
func (e *Engine) regenerate() {
	if len(e.files) == 0 {
		e.perm = nil
		return
	}
	perm := make([]int, len(e.files))
	for i := range perm {
		perm[i] = i
	}
	e.rng.Shuffle(len(perm), func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})
	e.perm = perm
}
