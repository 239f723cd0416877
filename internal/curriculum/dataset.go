package curriculum

import (
	"sync"
	"time"
)

// Snapshot is one consistent load of both dataset files. It is never mutated
// after construction.
type Snapshot struct {
	Standards   []Standard
	Lessons     []Lesson
	Items       []ContentItem
	Diagnostics []Diagnostic
	LoadedAt    time.Time
}

// Dataset lazily loads the curriculum and content files once and serves the
// cached snapshot until Invalidate is called. Nothing invalidates it
// implicitly: a file edited after the first load is not seen until restart,
// Invalidate, or an opted-in Watch.
type Dataset struct {
	curriculumPath string
	contentPath    string
	onLoad         func(*Snapshot)

	mu   sync.Mutex
	snap *Snapshot
}

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithLoadHook registers a callback invoked after every (re)load.
func WithLoadHook(fn func(*Snapshot)) DatasetOption {
	return func(d *Dataset) {
		d.onLoad = fn
	}
}

// NewDataset creates a dataset over the two JSON files. Nothing is read until
// the first Snapshot call.
func NewDataset(curriculumPath, contentPath string, opts ...DatasetOption) *Dataset {
	d := &Dataset{
		curriculumPath: curriculumPath,
		contentPath:    contentPath,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Snapshot returns the cached snapshot, loading it on first use.
func (d *Dataset) Snapshot() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.snap == nil {
		d.snap = d.load()
		if d.onLoad != nil {
			d.onLoad(d.snap)
		}
	}
	return d.snap
}

// Invalidate drops the cached snapshot; the next Snapshot call reloads.
func (d *Dataset) Invalidate() {
	d.mu.Lock()
	d.snap = nil
	d.mu.Unlock()
}

// Paths returns the curriculum and content file paths.
func (d *Dataset) Paths() (string, string) {
	return d.curriculumPath, d.contentPath
}

func (d *Dataset) load() *Snapshot {
	c := LoadCurriculum(d.curriculumPath)
	content := LoadContent(d.contentPath)

	diags := make([]Diagnostic, 0, len(c.Diagnostics)+len(content.Diagnostics))
	diags = append(diags, c.Diagnostics...)
	diags = append(diags, content.Diagnostics...)

	return &Snapshot{
		Standards:   c.Standards,
		Lessons:     c.Lessons,
		Items:       content.Items,
		Diagnostics: diags,
		LoadedAt:    time.Now(),
	}
}
