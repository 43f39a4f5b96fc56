package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// --- Mock implementations ---

// chatCall records one Chat invocation.
type chatCall struct {
	system string
	user   string
	opts   driven.ChatOptions
}

// mockLLMService implements driven.LLMService for testing.
// Replies are keyed by system prompt, which mockPromptStore sets to the prompt name.
type mockLLMService struct {
	mu      sync.Mutex
	name    string
	replies map[string]string
	err     error
	block   bool
	calls   []chatCall
}

func newMockLLM(name string, replies map[string]string) *mockLLMService {
	return &mockLLMService{name: name, replies: replies}
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	call := chatCall{opts: opts}
	for _, msg := range messages {
		switch msg.Role {
		case driven.RoleSystem:
			call.system = msg.Content
		case driven.RoleUser:
			call.user = msg.Content
		}
	}
	m.calls = append(m.calls, call)
	err, block, reply := m.err, m.block, m.replies[call.system]
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (m *mockLLMService) ModelName() string {
	return m.name
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return m.err
}

func (m *mockLLMService) Close() error {
	return nil
}

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLMService) lastCall() chatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// mockPromptStore returns each prompt's name as its content.
type mockPromptStore struct{}

func (mockPromptStore) Load(name string) (string, error) {
	return name, nil
}

func (mockPromptStore) Reload() {}

// countingStore wraps a RecordStore and counts GetFile calls per key.
type countingStore struct {
	driven.RecordStore
	mu   sync.Mutex
	gets map[string]int
}

func newCountingStore(inner driven.RecordStore) *countingStore {
	return &countingStore{RecordStore: inner, gets: make(map[string]int)}
}

func (s *countingStore) GetFile(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets[key]++
	s.mu.Unlock()
	return s.RecordStore.GetFile(ctx, key)
}

// --- Fixtures ---

const (
	corrosionQuery = "corrosion rate for 4-inch lines"
	inspectionData = "Inspection Data"
	safetyDocs     = "Safety Documents"
	pipingFileID   = "Inspection Data/piping_FW_101"
	pumpFileID     = "Inspection Data/pump_photo"
	permitFileID   = "Safety Documents/hot_work_permit"
)

const pipingBlob = `{
	"title": "Piping Inspection FW-101",
	"summary": "CML thickness survey for 4-inch firewater line 101.",
	"keywords": ["CML", "corrosion rate", "thickness"],
	"sections": [
		{"heading": "Scope", "text": "Inspection of 4-inch firewater lines."},
		{"heading": "Findings", "text": "Localised thinning at CML-3."}
	],
	"tables": [
		{"title": "CML Readings", "headers": ["CML", "Nominal", "Measured", "Corrosion Rate"],
		 "rows": [["CML-1", 6.02, 5.8, "0.05 mm/y"], ["CML-3", 6.02, 4.9, "0.21 mm/y"]]}
	]
}`

const pumpBlob = `{
	"image_type": "photograph",
	"title": "Pump P-201 nameplate",
	"summary": "Nameplate photo of firewater pump.",
	"ocr_text": "P-201 450 m3/h",
	"observations": ["Minor rust on bolts"]
}`

const permitBlob = `{
	"title": "Hot work permit",
	"summary": "Permit template for hot work.",
	"sections": [{"heading": "Precautions", "text": "Gas test before work."}]
}`

func folderMeta(summary string, keywords []string, count int) []byte {
	blob, _ := json.Marshal(domain.FolderMetadata{FolderSummary: &domain.FolderSummary{
		Summary: summary, Keywords: keywords, FileCount: count,
	}})
	return blob
}

// setupCorrosionStore builds the record store of the corrosion scenario:
// two indexed folders, a catch-all folder and an unindexed folder.
func setupCorrosionStore(t *testing.T) *memory.RecordStore {
	t.Helper()
	ctx := context.Background()
	store := memory.NewRecordStore()

	require.NoError(t, store.PutMetadata(ctx, inspectionData,
		folderMeta("CML thickness surveys and corrosion monitoring for piping.", []string{"CML", "UT"}, 2)))
	require.NoError(t, store.PutMetadata(ctx, safetyDocs,
		folderMeta("Permits and safety procedures.", []string{"permit"}, 1)))
	require.NoError(t, store.PutMetadata(ctx, domain.DefaultCatchAllFolder,
		folderMeta("Documents that could not be classified.", nil, 1)))

	files := map[string]string{
		domain.ExtractionKey(pipingFileID):               pipingBlob,
		domain.ExtractionKey(pumpFileID):                 pumpBlob,
		"Inspection Data/readme.txt":                     "not an extraction",
		domain.ExtractionKey(permitFileID):               permitBlob,
		domain.ExtractionKey("Unsorted/scan_0042"):       `{"title": "Unknown scan"}`,
		domain.ExtractionKey("Drafts/unfinished_report"): `{"title": "Draft"}`,
	}
	for key, blob := range files {
		require.NoError(t, store.PutFile(ctx, key, []byte(blob)))
	}
	return store
}

// corrosionReplies are the oracle replies of the corrosion scenario.
// The retrieval reply is fenced to exercise the second parse strategy.
func corrosionReplies() map[string]string {
	return map[string]string{
		driven.PromptFolderScoring: `{"results": [
			{"folderId": "Inspection Data", "score": 0.82},
			{"folderId": "Safety Documents", "score": 0.1}]}`,
		driven.PromptFileScoring: `{"results": [
			{"fileId": "Inspection Data/piping_FW_101", "score": 0.71},
			{"fileId": "Inspection Data/pump_photo", "score": 0.3}]}`,
		driven.PromptSectionRetrieval: "```json\n" + `{"results": [
			{"fileId": "Inspection Data/piping_FW_101", "relevant": [
				{"type": "table", "index": 0, "reason": "contains corrosion rate column"}]}]}` + "\n```",
	}
}

// newTestOracle builds an oracle whose classifier and extractor share one mock.
func newTestOracle(t *testing.T, llm *mockLLMService) *Oracle {
	t.Helper()
	oracle, err := NewOracle(llm, llm, mockPromptStore{})
	require.NoError(t, err)
	return oracle
}

func testOptions() domain.SearchOptions {
	return domain.SearchOptions{}.WithDefaults(domain.DefaultAppSettings().Retrieval)
}

// scoresReply renders a scoring reply from id/score pairs.
func scoresReply(key string, scores map[string]float64) string {
	entries := make([]map[string]any, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, map[string]any{key: id, "score": score})
	}
	blob, _ := json.Marshal(map[string]any{"results": entries})
	return string(blob)
}

// decodeUser decodes the user payload of an oracle call.
func decodeUser(t *testing.T, call chatCall) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.user), &payload), fmt.Sprintf("payload: %s", call.user))
	return payload
}
