package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

func pumpEnvelope() *domain.SearchEnvelope {
	env := domain.NewSearchEnvelope("s1", "pump vibration limits")
	env.Folders = []domain.ScoredFolder{{Folder: domain.Folder{ID: "Maintenance"}, Score: 0.81}}
	env.Files = []domain.ScoredFile{{
		File:  domain.FileCandidate{ID: "Maintenance/pump_P-201", Folder: "Maintenance", Title: "Pump P-201 Datasheet"},
		Score: 0.77,
	}}
	env.Results = []domain.ResolvedResult{{
		Pointer: domain.ContentPointer{FileID: "Maintenance/pump_P-201", Type: domain.ContentReading, Index: 2},
		Content: domain.ContentItem{
			Type:    domain.ContentReading,
			Index:   2,
			Reading: &domain.Reading{Parameter: "Vibration", Value: "4.5", Unit: "mm/s"},
		},
		Folder:    "Maintenance",
		Filename:  "pump_P-201",
		FileTitle: "Pump P-201 Datasheet",
		Reason:    "alarm limit",
	}}
	return env
}

func TestSearchCmd_Text(t *testing.T) {
	retrieval := &mockRetrieval{env: pumpEnvelope()}
	setupServices(t, Services{Retrieval: retrieval})

	out, errOut, err := execute(t, "search", "pump", "vibration", "limits")

	require.NoError(t, err)
	assert.Equal(t, "pump vibration limits", retrieval.query)
	assert.Contains(t, errOut, "[1/3] Scoring folders")
	assert.Contains(t, errOut, "[3/3] Retrieving sections")
	assert.Contains(t, out, "Folders (1):")
	assert.Contains(t, out, "0.81  Maintenance")
	assert.Contains(t, out, "[1] reading: Vibration")
	assert.Contains(t, out, "File: Maintenance/pump_P-201 (Pump P-201 Datasheet)")
	assert.Contains(t, out, "Vibration: 4.5 mm/s")
}

func TestSearchCmd_Quiet(t *testing.T) {
	setupServices(t, Services{Retrieval: &mockRetrieval{}})

	out, errOut, err := execute(t, "search", "-q", "anything")

	require.NoError(t, err)
	assert.Empty(t, errOut)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_Options(t *testing.T) {
	retrieval := &mockRetrieval{}
	setupServices(t, Services{Retrieval: retrieval})

	_, _, err := execute(t, "search", "--threshold", "0.7", "--timeout", "45s", "-q", "x")

	require.NoError(t, err)
	assert.InDelta(t, 0.7, retrieval.opts.Threshold, 1e-9)
	assert.Equal(t, "45s", retrieval.opts.StageTimeout.String())
}

func TestSearchCmd_InvalidThreshold(t *testing.T) {
	setupServices(t, Services{Retrieval: &mockRetrieval{}})

	_, _, err := execute(t, "search", "--threshold", "1.5", "x")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_JSON(t *testing.T) {
	setupServices(t, Services{Retrieval: &mockRetrieval{env: pumpEnvelope()}})

	out, _, err := execute(t, "search", "--json", "-q", "pump")
	require.NoError(t, err)

	var env domain.SearchEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "s1", env.SearchID)
	require.Len(t, env.Results, 1)
	assert.Equal(t, "Maintenance/pump_P-201", env.Results[0].Pointer.FileID)
}

func TestSearchCmd_YAML(t *testing.T) {
	setupServices(t, Services{Retrieval: &mockRetrieval{env: pumpEnvelope()}})

	out, _, err := execute(t, "search", "--yaml", "-q", "pump")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "pump vibration limits", doc["query"])
}

func TestSearchCmd_JSONAndYAMLExclusive(t *testing.T) {
	setupServices(t, Services{Retrieval: &mockRetrieval{}})

	_, _, err := execute(t, "search", "--json", "--yaml", "x")

	assert.Error(t, err)
}

func TestSearchCmd_PartialEnvelopeOnError(t *testing.T) {
	env := pumpEnvelope()
	env.Results = nil
	oracleErr := errors.New("stage 3 timed out")
	setupServices(t, Services{Retrieval: &mockRetrieval{env: env, err: oracleErr}})

	out, _, err := execute(t, "search", "-q", "pump")

	require.ErrorIs(t, err, oracleErr)
	assert.Contains(t, out, "0.81  Maintenance")
}

func TestSearchCmd_NotConfigured(t *testing.T) {
	setupServices(t, Services{})

	_, _, err := execute(t, "search", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search unavailable")
	assert.Contains(t, err.Error(), "zoomin settings oracle")
}

func TestSearchCmd_UnavailableKeepsCause(t *testing.T) {
	tests := []struct {
		name  string
		cause error
	}{
		{"oracle not configured", fmt.Errorf("classifier: %w: openai requires an API key", domain.ErrOracleNotConfigured)},
		{"store unavailable", fmt.Errorf("%w: open records.db: permission denied", domain.ErrStoreUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupServices(t, Services{RetrievalErr: tt.cause})

			_, _, err := execute(t, "search", "x")

			require.ErrorIs(t, err, tt.cause)
			assert.Contains(t, err.Error(), "search unavailable")
		})
	}

	setupServices(t, Services{RetrievalErr: fmt.Errorf("%w: no key", domain.ErrOracleNotConfigured)})
	_, _, err := execute(t, "search", "x")
	assert.True(t, errors.Is(err, domain.ErrOracleNotConfigured))
	assert.False(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestSearchCmd_ZeroThresholdUsesDefault(t *testing.T) {
	flag := searchCmd.Flags().Lookup("threshold")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "0 uses the configured default")

	retrieval := &mockRetrieval{}
	setupServices(t, Services{Retrieval: retrieval})

	_, _, err := execute(t, "search", "-q", "--threshold", "0", "pump")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThreshold, retrieval.opts.WithDefaults(domain.RetrievalSettings{}).Threshold)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupServices(t, Services{Retrieval: &mockRetrieval{}})

	_, _, err := execute(t, "search")

	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("  short \n", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
