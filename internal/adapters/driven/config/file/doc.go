// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration in ~/.zoomin/config.toml
//   - PromptStore: editable oracle prompts in ~/.zoomin/prompts with embedded defaults
//   - WatchPrompts: fsnotify-driven prompt reload for long-running modes
package file
