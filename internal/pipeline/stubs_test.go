package pipeline_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JaimeStill/courier/internal/analysis"
	"github.com/JaimeStill/courier/internal/failures"
	"github.com/JaimeStill/courier/internal/paperless"
	"github.com/JaimeStill/courier/internal/pipeline"
	"github.com/JaimeStill/courier/internal/queue"
	"github.com/JaimeStill/courier/pkg/pagination"
)

// stubQueue is an in-memory queue.System enforcing the same status state
// machine as the repository.
type stubQueue struct {
	mu          sync.Mutex
	entries     map[int]*queue.QueueEntry
	transitions map[int][]queue.Status
}

func newStubQueue(entries ...queue.QueueEntry) *stubQueue {
	q := &stubQueue{
		entries:     make(map[int]*queue.QueueEntry),
		transitions: make(map[int][]queue.Status),
	}
	for _, e := range entries {
		entry := e
		q.entries[entry.DocumentID] = &entry
	}
	return q
}

func (q *stubQueue) Handler() *queue.Handler { return nil }

func (q *stubQueue) List(context.Context, pagination.PageRequest, queue.Filters) (*pagination.PageResult[queue.QueueEntry], error) {
	return nil, nil
}

func (q *stubQueue) Find(_ context.Context, documentID int) (*queue.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.entries[documentID]
	if !ok {
		return nil, queue.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (q *stubQueue) Stats(context.Context) (*queue.Stats, error) { return &queue.Stats{}, nil }

func (q *stubQueue) Add(_ context.Context, cmd queue.AddCommand) (*queue.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.entries[cmd.DocumentID]; ok {
		return nil, queue.ErrDuplicate
	}
	entry := &queue.QueueEntry{
		DocumentID: cmd.DocumentID,
		Status:     queue.StatusPending,
		Reason:     cmd.Reason,
	}
	q.entries[cmd.DocumentID] = entry
	copied := *entry
	return &copied, nil
}

func (q *stubQueue) Enqueue(ctx context.Context, documentID int, reason string) (*queue.QueueEntry, error) {
	entry, err := q.Add(ctx, queue.AddCommand{DocumentID: documentID, Reason: reason})
	if err == nil {
		return entry, nil
	}
	return q.Find(ctx, documentID)
}

func (q *stubQueue) Remove(_ context.Context, documentID int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.entries[documentID]
	if !ok {
		return queue.ErrNotFound
	}
	if entry.Status == queue.StatusProcessing {
		return queue.ErrProcessing
	}
	delete(q.entries, documentID)
	return nil
}

func (q *stubQueue) Text(_ context.Context, documentID int) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.entries[documentID]
	if !ok {
		return "", queue.ErrNotFound
	}
	if !entry.HasText() {
		return "", queue.ErrNoText
	}
	return *entry.OCRText, nil
}

func (q *stubQueue) SetStatus(_ context.Context, documentID int, status queue.Status, ocrText *string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.entries[documentID]
	if !ok {
		return queue.ErrNotFound
	}
	if !queue.ValidTransition(entry.Status, status) {
		return fmt.Errorf("%w: %s to %s", queue.ErrInvalidTransition, entry.Status, status)
	}

	entry.Status = status
	if ocrText != nil {
		entry.OCRText = ocrText
	}
	q.transitions[documentID] = append(q.transitions[documentID], status)
	return nil
}

func (q *stubQueue) ListProcessable(context.Context) ([]queue.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var entries []queue.QueueEntry
	for _, entry := range q.entries {
		if entry.Status == queue.StatusPending || entry.Status == queue.StatusFailed {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DocumentID < entries[j].DocumentID
	})
	return entries, nil
}

func (q *stubQueue) Delete(_ context.Context, documentID int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, documentID)
	return nil
}

func (q *stubQueue) status(documentID int) queue.Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries[documentID].Status
}

func (q *stubQueue) recorded(documentID int) []queue.Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.transitions[documentID]
}

// stubFailures records escalations. When queue is set, Add removes the queue
// row alongside the upsert, mirroring the repository transaction.
type stubFailures struct {
	mu    sync.Mutex
	added []failures.PermanentFailure
	queue *stubQueue
}

func (f *stubFailures) Handler() *failures.Handler { return nil }

func (f *stubFailures) List(context.Context, pagination.PageRequest, failures.Filters) (*pagination.PageResult[failures.PermanentFailure], error) {
	return nil, nil
}

func (f *stubFailures) Find(context.Context, int) (*failures.PermanentFailure, error) {
	return nil, failures.ErrNotFound
}

func (f *stubFailures) Stats(context.Context) (*failures.Stats, error) {
	return &failures.Stats{}, nil
}

func (f *stubFailures) Add(ctx context.Context, documentID int, reason string, source failures.Source) (*failures.PermanentFailure, error) {
	f.mu.Lock()
	pf := failures.PermanentFailure{
		DocumentID:   documentID,
		FailedReason: reason,
		Source:       source,
	}
	f.added = append(f.added, pf)
	f.mu.Unlock()

	if f.queue != nil {
		if err := f.queue.Delete(ctx, documentID); err != nil {
			return nil, err
		}
	}
	return &pf, nil
}

func (f *stubFailures) Reset(context.Context, int) error { return nil }

// stubBackend is an in-memory paperless.Client.
type stubBackend struct {
	mu sync.Mutex

	data        []byte
	mime        string
	downloadErr map[int]error

	patchResult bool
	patchErr    error
	patched     map[int]string

	doc     *paperless.Document
	updated []paperless.UpdateFields
}

func newStubBackend(data []byte, mime string) *stubBackend {
	return &stubBackend{
		data:        data,
		mime:        mime,
		downloadErr: make(map[int]error),
		patchResult: true,
		patched:     make(map[int]string),
		doc:         &paperless.Document{Title: "original title"},
	}
}

func (b *stubBackend) DownloadDocument(_ context.Context, id int) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.downloadErr[id]; err != nil {
		return nil, "", err
	}
	return b.data, b.mime, nil
}

func (b *stubBackend) GetDocument(_ context.Context, id int) (*paperless.Document, error) {
	doc := *b.doc
	doc.ID = id
	return &doc, nil
}

func (b *stubBackend) PatchContent(_ context.Context, id int, content string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.patchErr != nil {
		return false, b.patchErr
	}
	if b.patchResult {
		b.patched[id] = content
	}
	return b.patchResult, nil
}

func (b *stubBackend) UpdateDocument(_ context.Context, _ int, fields paperless.UpdateFields) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated = append(b.updated, fields)
	return nil
}

func (b *stubBackend) Tags(context.Context) ([]paperless.Tag, error) {
	return []paperless.Tag{{ID: 1, Name: "invoice"}}, nil
}

func (b *stubBackend) Correspondents(context.Context) ([]paperless.Correspondent, error) {
	return []paperless.Correspondent{{ID: 1, Name: "ACME"}}, nil
}

func (b *stubBackend) DocumentTypes(context.Context) ([]paperless.DocumentType, error) {
	return []paperless.DocumentType{{ID: 1, Name: "Invoice"}}, nil
}

func (b *stubBackend) GetOrCreateCorrespondent(_ context.Context, name string) (*paperless.Correspondent, error) {
	return &paperless.Correspondent{ID: 2, Name: name}, nil
}

func (b *stubBackend) GetOrCreateDocumentType(_ context.Context, name string) (*paperless.DocumentType, error) {
	return &paperless.DocumentType{ID: 2, Name: name}, nil
}

func (b *stubBackend) EnsureTags(_ context.Context, names []string) ([]int, error) {
	ids := make([]int, len(names))
	for i := range names {
		ids[i] = i + 1
	}
	return ids, nil
}

func (b *stubBackend) InvalidateCache() {}

// stubOCR returns fixed text. Extraction failures are keyed by call order,
// since the OCR client never sees document identity.
type stubOCR struct {
	mu    sync.Mutex
	text  string
	errOn map[int]error
	calls int
}

func newStubOCR(text string) *stubOCR {
	return &stubOCR{text: text, errOn: make(map[int]error)}
}

func (o *stubOCR) failOn(call int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errOn[call] = err
}

func (o *stubOCR) ExtractText(context.Context, []byte, string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls++
	if err, ok := o.errOn[o.calls]; ok {
		return "", err
	}
	return o.text, nil
}

// stubAnalysisClient returns a fixed result.
type stubAnalysisClient struct {
	mu      sync.Mutex
	result  *analysis.Result
	err     error
	calls   int
	lastReq analysis.Request
}

func (c *stubAnalysisClient) Analyze(_ context.Context, req analysis.Request) (*analysis.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

// collector records emitted events in order.
type collector struct {
	mu     sync.Mutex
	events []pipeline.Event
}

func (c *collector) Emit(step pipeline.Step, message string, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, pipeline.Event{Step: step, Message: message, Data: data})
}

// steps returns the ordered sequence of distinct steps, collapsing
// consecutive repeats.
func (c *collector) steps() []pipeline.Step {
	c.mu.Lock()
	defer c.mu.Unlock()

	var steps []pipeline.Step
	for _, e := range c.events {
		if len(steps) == 0 || steps[len(steps)-1] != e.Step {
			steps = append(steps, e.Step)
		}
	}
	return steps
}
