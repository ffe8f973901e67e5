package http_server

import (
	"sync"
	"time"

	"github.com/danthegoodman1/parquetview/engine"
)

type (
	// LoadedFile is one browsable file: its engine session plus display info.
	LoadedFile struct {
		Session  *engine.Session
		Name     string
		LoadedAt time.Time
	}

	// FileRegistry holds the loaded files by id, plus the full load threshold
	// applied to future loads. Sessions themselves are immutable, the
	// registry only guards the map and the threshold.
	FileRegistry struct {
		mu        sync.RWMutex
		files     map[string]*LoadedFile
		threshold int64
	}
)

func NewFileRegistry(threshold int64) *FileRegistry {
	if threshold <= 0 {
		threshold = engine.DefaultFullLoadThreshold
	}
	return &FileRegistry{
		files:     make(map[string]*LoadedFile),
		threshold: threshold,
	}
}

func (r *FileRegistry) Get(id string) (*LoadedFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lf, ok := r.files[id]
	return lf, ok
}

// Put registers a loaded file under its session's file id, replacing (and
// closing) any previous file with that id.
func (r *FileRegistry) Put(lf *LoadedFile) {
	id := lf.Session.FileID()
	r.mu.Lock()
	old := r.files[id]
	r.files[id] = lf
	r.mu.Unlock()
	if old != nil {
		_ = old.Session.Close()
	}
}

func (r *FileRegistry) Delete(id string) bool {
	r.mu.Lock()
	lf, ok := r.files[id]
	delete(r.files, id)
	r.mu.Unlock()
	if ok {
		_ = lf.Session.Close()
	}
	return ok
}

func (r *FileRegistry) CloseAll() {
	r.mu.Lock()
	files := r.files
	r.files = make(map[string]*LoadedFile)
	r.mu.Unlock()
	for _, lf := range files {
		_ = lf.Session.Close()
	}
}

// Threshold is the full load threshold for the NEXT file load. Already open
// sessions keep the threshold they were created with.
func (r *FileRegistry) Threshold() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.threshold
}

func (r *FileRegistry) SetThreshold(v int64) {
	r.mu.Lock()
	r.threshold = v
	r.mu.Unlock()
}
