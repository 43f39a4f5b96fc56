package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// eventRecorder collects progress events.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (r *eventRecorder) OnProgress(e domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) states() []domain.SearchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SearchState, len(r.events))
	for i, e := range r.events {
		out[i] = e.State
	}
	return out
}

func newTestSearchService(t *testing.T, store driven.RecordStore, llm *mockLLMService) *SearchService {
	t.Helper()
	svc, err := NewSearchService(store, newTestOracle(t, llm), domain.DefaultAppSettings().Retrieval)
	require.NoError(t, err)
	return svc
}

func TestNewSearchService_RequiresCollaborators(t *testing.T) {
	_, err := NewSearchService(memory.NewRecordStore(), nil, domain.RetrievalSettings{})
	assert.True(t, errors.Is(err, domain.ErrOracleNotConfigured))

	llm := newMockLLM("m", nil)
	_, err = NewSearchService(nil, newTestOracle(t, llm), domain.RetrievalSettings{})
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestSearchService_CorrosionScenario(t *testing.T) {
	llm := newMockLLM("m", corrosionReplies())
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)
	recorder := &eventRecorder{}

	env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, recorder)

	require.NoError(t, err)
	assert.NotEmpty(t, env.SearchID)
	assert.Equal(t, corrosionQuery, env.Query)

	require.Len(t, env.Folders, 1)
	assert.Equal(t, inspectionData, env.Folders[0].Folder.ID)
	assert.InDelta(t, 0.82, env.Folders[0].Score, 1e-9)

	require.Len(t, env.Files, 1)
	assert.Equal(t, pipingFileID, env.Files[0].File.ID)
	assert.InDelta(t, 0.71, env.Files[0].Score, 1e-9)

	require.Len(t, env.Results, 1)
	result := env.Results[0]
	assert.Equal(t, domain.ContentTable, result.Pointer.Type)
	assert.Equal(t, "contains corrosion rate column", result.Reason)
	require.NotNil(t, result.Content.Table)
	assert.Equal(t, "CML Readings", result.Content.Table.Title)
	assert.Len(t, result.Content.Table.Rows, 2)

	// Safety Documents never reached stage 2.
	assert.Equal(t, 3, llm.callCount())
	for _, f := range payloadFileIDs(t, llm.calls[1]) {
		assert.NotEqual(t, permitFileID, f)
	}

	assert.GreaterOrEqual(t, env.Elapsed, time.Duration(0))
	assert.Equal(t, []domain.SearchState{
		domain.StateScoringFolders,
		domain.StateScoringFiles,
		domain.StateRetrievingSections,
		domain.StateDone,
	}, recorder.states())
}

func TestSearchService_ProgressEvents(t *testing.T) {
	llm := newMockLLM("m", corrosionReplies())
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)
	recorder := &eventRecorder{}

	env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, recorder)
	require.NoError(t, err)

	for i, e := range recorder.events {
		assert.Equal(t, env.SearchID, e.SearchID)
		assert.NotEmpty(t, e.Message)
		assert.Equal(t, i == len(recorder.events)-1, e.Done)
		assert.Equal(t, e.State.Stage(), e.Stage)
	}
	assert.Equal(t, 1, recorder.events[0].Stage)
	assert.Equal(t, 3, recorder.events[2].Stage)
}

func TestSearchService_ShortCircuitOnNoFolders(t *testing.T) {
	llm := newMockLLM("m", map[string]string{
		driven.PromptFolderScoring: `{"results": [{"folderId": "Inspection Data", "score": 0.2}]}`,
	})
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)
	recorder := &eventRecorder{}

	env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, recorder)

	require.NoError(t, err)
	assert.Empty(t, env.Folders)
	assert.NotNil(t, env.Files)
	assert.Empty(t, env.Files)
	assert.NotNil(t, env.Results)
	assert.Empty(t, env.Results)
	// Only the stage 1 call was made.
	assert.Equal(t, 1, llm.callCount())
	assert.Equal(t, []domain.SearchState{domain.StateScoringFolders, domain.StateDone}, recorder.states())
}

func TestSearchService_EmptyStoreMakesNoOracleCalls(t *testing.T) {
	llm := newMockLLM("m", corrosionReplies())
	svc := newTestSearchService(t, memory.NewRecordStore(), llm)

	env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, nil)

	require.NoError(t, err)
	assert.Empty(t, env.Folders)
	assert.Empty(t, env.Results)
	assert.Equal(t, 0, llm.callCount())
}

func TestSearchService_ShortCircuitOnNoFiles(t *testing.T) {
	replies := corrosionReplies()
	replies[driven.PromptFileScoring] = `{"results": []}`
	llm := newMockLLM("m", replies)
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)

	env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, env.Folders, 1)
	assert.Empty(t, env.Files)
	assert.Empty(t, env.Results)
	assert.Equal(t, 2, llm.callCount())
}

func TestSearchService_EmptyQuery(t *testing.T) {
	llm := newMockLLM("m", corrosionReplies())
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)
	recorder := &eventRecorder{}

	env, err := svc.Search(context.Background(), "   ", domain.SearchOptions{}, recorder)

	require.NoError(t, err)
	assert.Empty(t, env.Query)
	assert.Empty(t, env.Results)
	assert.Equal(t, 0, llm.callCount())
	assert.Equal(t, []domain.SearchState{domain.StateDone}, recorder.states())
}

func TestSearchService_TransportErrorReturnsPartialEnvelope(t *testing.T) {
	ctx := context.Background()
	classifier := newMockLLM("cheap", corrosionReplies())
	extractor := newMockLLM("strong", nil)
	extractor.err = errors.New("status 500: overloaded")
	oracle, err := NewOracle(classifier, extractor, mockPromptStore{})
	require.NoError(t, err)
	svc, err := NewSearchService(setupCorrosionStore(t), oracle, domain.RetrievalSettings{})
	require.NoError(t, err)
	recorder := &eventRecorder{}

	env, err := svc.Search(ctx, corrosionQuery, domain.SearchOptions{}, recorder)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOracleTransport))
	require.NotNil(t, env)
	assert.Len(t, env.Folders, 1)
	assert.Len(t, env.Files, 1)
	assert.NotNil(t, env.Results)
	assert.Empty(t, env.Results)

	states := recorder.states()
	assert.Equal(t, domain.StateDone, states[len(states)-1])
}

func TestSearchService_StageTimeout(t *testing.T) {
	llm := newMockLLM("m", nil)
	llm.block = true
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)

	start := time.Now()
	env, err := svc.Search(context.Background(), corrosionQuery,
		domain.SearchOptions{StageTimeout: 50 * time.Millisecond}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, domain.ErrOracleTransport))
	assert.Less(t, time.Since(start), 5*time.Second)
	require.NotNil(t, env)
	assert.Empty(t, env.Folders)
	assert.Empty(t, env.Files)
}

func TestSearchService_CallerCancellation(t *testing.T) {
	llm := newMockLLM("m", nil)
	llm.block = true
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		_, err = svc.Search(ctx, corrosionQuery, domain.SearchOptions{}, nil)
	}()
	require.Eventually(t, func() bool { return llm.callCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSearchService_DiagnosticsSurfaceDrops(t *testing.T) {
	replies := corrosionReplies()
	replies[driven.PromptSectionRetrieval] = `{"results": [{"fileId": "Inspection Data/piping_FW_101", "relevant": [
		{"type": "table", "index": 0, "reason": "rates"},
		{"type": "table", "index": 3, "reason": "hallucinated"},
		{"type": "diagram", "index": 0, "reason": "bad type"}]}]}`
	llm := newMockLLM("m", replies)
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)

	env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, env.Results, 1)
	assert.Equal(t, 1, env.Diagnostics.DroppedPointers)
	assert.Equal(t, 1, env.Diagnostics.InvalidOracleEntries)
	assert.Len(t, env.Diagnostics.Warnings, 2)
}

func TestSearchService_OverlappingSearches(t *testing.T) {
	llm := newMockLLM("m", corrosionReplies())
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)

	var wg sync.WaitGroup
	ids := make([]string, 4)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, nil)
			assert.NoError(t, err)
			assert.Len(t, env.Results, 1)
			ids[i] = env.SearchID
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSearchService_EnvelopeJSON(t *testing.T) {
	llm := newMockLLM("m", map[string]string{driven.PromptFolderScoring: `{"results": []}`})
	svc := newTestSearchService(t, setupCorrosionStore(t), llm)

	env, err := svc.Search(context.Background(), corrosionQuery, domain.SearchOptions{}, nil)
	require.NoError(t, err)

	blob, err := json.Marshal(env)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.Equal(t, []any{}, decoded["folders"])
	assert.Equal(t, []any{}, decoded["files"])
	assert.Equal(t, []any{}, decoded["results"])
}

func TestProgressFunc(t *testing.T) {
	var got domain.ProgressEvent
	var observer driving.ProgressObserver = driving.ProgressFunc(func(e domain.ProgressEvent) { got = e })

	observer.OnProgress(domain.ProgressEvent{Stage: 2, Message: "x"})

	assert.Equal(t, 2, got.Stage)
}
