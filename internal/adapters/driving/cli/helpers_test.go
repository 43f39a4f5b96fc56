package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/core/ports/driving"
)

// mockRetrieval implements driving.RetrievalService.
type mockRetrieval struct {
	env   *domain.SearchEnvelope
	err   error
	query string
	opts  domain.SearchOptions
}

func (m *mockRetrieval) Search(
	_ context.Context, query string, opts domain.SearchOptions, observer driving.ProgressObserver,
) (*domain.SearchEnvelope, error) {
	m.query = query
	m.opts = opts
	if observer != nil {
		for _, st := range []domain.SearchState{
			domain.StateScoringFolders, domain.StateScoringFiles, domain.StateRetrievingSections,
		} {
			observer.OnProgress(domain.ProgressEvent{Stage: st.Stage(), State: st, Message: st.Description()})
		}
		observer.OnProgress(domain.ProgressEvent{State: domain.StateDone, Message: "Done", Done: true})
	}
	if m.env == nil {
		return domain.NewSearchEnvelope("s1", query), m.err
	}
	return m.env, m.err
}

// mockCatalog implements driving.CatalogService.
type mockCatalog struct {
	folders []domain.Folder
	err     error
}

func (m *mockCatalog) ListFolders(context.Context) ([]domain.Folder, error) {
	return m.folders, m.err
}

func (m *mockCatalog) GetFile(context.Context, string) (domain.Extraction, error) {
	return nil, domain.ErrNotFound
}

// mockImport implements driving.ImportService.
type mockImport struct {
	report *driving.ImportReport
	err    error
	called bool
}

func (m *mockImport) Import(_ context.Context, src driven.RecordStore) (*driving.ImportReport, error) {
	m.called = src != nil
	return m.report, m.err
}

// mockSettings implements driving.SettingsService.
type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	oracleErr   error
	retrieval   *domain.RetrievalSettings
	storage     *domain.StorageSettings
	oracles     map[domain.OracleRole]domain.OracleSettings
}

func newMockSettings() *mockSettings {
	return &mockSettings{
		settings: domain.AppSettings{
			Classifier: domain.OracleSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-1234567890abcdef"},
			Extractor:  domain.OracleSettings{Provider: domain.AIProviderOllama, Model: "llama3.1", BaseURL: "http://localhost:11434"},
			Retrieval: domain.RetrievalSettings{
				Threshold: 0.5, CatchAllFolder: "Unsorted", MaxItemChars: 4000,
			},
			Storage: domain.StorageSettings{Backend: domain.StorageSQLite},
		},
		oracles: make(map[domain.OracleRole]domain.OracleSettings),
	}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) { return &m.settings, nil }

func (m *mockSettings) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettings) SetOracle(role domain.OracleRole, provider domain.AIProvider, model, apiKey string) error {
	m.oracles[role] = domain.OracleSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettings) SetRetrieval(r domain.RetrievalSettings) error {
	m.retrieval = &r
	return nil
}

func (m *mockSettings) SetStorage(s domain.StorageSettings) error {
	m.storage = &s
	return nil
}

func (m *mockSettings) Validate() error { return m.validateErr }

func (m *mockSettings) ValidateOracle(domain.OracleRole) error { return m.oracleErr }

func (m *mockSettings) GetDefaults() domain.AppSettings { return m.settings }

// setupServices installs s for the duration of the test.
func setupServices(t *testing.T, s Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(Services{}) })
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
