package migration

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeBackend serve páginas fixas e registra cada lote gravado.
type fakeBackend struct {
	mu sync.Mutex

	pages    []Page
	scanErr  map[int]error
	loopAt   int
	nextOf   map[int]int
	requests []ScanRequest

	writeFn  func(call int, batch []UpdateOperation) error
	calls    int
	attempts [][]UpdateOperation
	written  [][]UpdateOperation
}

func newFakeBackend(records []Record, pageSize int) *fakeBackend {
	f := &fakeBackend{loopAt: -1, scanErr: map[int]error{}}
	for start := 0; start < len(records); start += pageSize {
		end := min(start+pageSize, len(records))
		f.pages = append(f.pages, Page{Records: records[start:end]})
	}
	if len(f.pages) == 0 {
		f.pages = []Page{{}}
	}
	return f
}

func (f *fakeBackend) ScanPage(ctx context.Context, req ScanRequest) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)

	i := 0
	if req.Cursor != "" {
		if _, err := fmt.Sscanf(req.Cursor, "page-%d", &i); err != nil {
			return Page{}, err
		}
	}
	if err, ok := f.scanErr[i]; ok {
		return Page{}, err
	}

	p := Page{Records: f.pages[i].Records}
	j, jump := f.nextOf[i]
	switch {
	case jump:
		p.Next = fmt.Sprintf("page-%d", j)
	case i == f.loopAt:
		p.Next = req.Cursor
	case i < len(f.pages)-1:
		p.Next = fmt.Sprintf("page-%d", i+1)
	}
	return p, nil
}

func (f *fakeBackend) AtomicWrite(ctx context.Context, batch []UpdateOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := append([]UpdateOperation(nil), batch...)
	f.attempts = append(f.attempts, cp)
	call := f.calls
	f.calls++

	if f.writeFn != nil {
		if err := f.writeFn(call, cp); err != nil {
			return err
		}
	}
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeBackend) writtenSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	sizes := make([]int, len(f.written))
	for i, b := range f.written {
		sizes[i] = len(b)
	}
	return sizes
}

func (f *fakeBackend) writtenOps() []UpdateOperation {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ops []UpdateOperation
	for _, b := range f.written {
		ops = append(ops, b...)
	}
	return ops
}

// makeRecords cria n registros; os índices em empty ficam sem formação.
func makeRecords(n int, empty func(i int) bool) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{Key: Key{Partition: fmt.Sprintf("student-%02d", i), Sort: "profile"}}
		if !empty(i) {
			records[i].PreviousDegrees = []any{"BSc"}
		}
	}
	return records
}

func makeOps(n int) []UpdateOperation {
	ops := make([]UpdateOperation, n)
	for i := range ops {
		ops[i] = UpdateOperation{Key: Key{Partition: fmt.Sprintf("k-%03d", i)}}
	}
	return ops
}

// sleepRecorder substitui a espera real e registra as durações pedidas.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.delays...)
}
