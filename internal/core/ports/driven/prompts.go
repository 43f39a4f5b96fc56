package driven

// PromptStore provides access to oracle prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Prompt names, one system prompt per pipeline stage.
// Templates have no format placeholders; the request payload is sent
// as a separate user message.
const (
	// PromptFolderScoring asks the classifier to score folders against a query.
	PromptFolderScoring = "folder_scoring"

	// PromptFileScoring asks the classifier to score files against a query.
	PromptFileScoring = "file_scoring"

	// PromptSectionRetrieval asks the extractor to select relevant content items.
	PromptSectionRetrieval = "section_retrieval"
)

// PromptNames returns every prompt name in pipeline order.
func PromptNames() []string {
	return []string{PromptFolderScoring, PromptFileScoring, PromptSectionRetrieval}
}
