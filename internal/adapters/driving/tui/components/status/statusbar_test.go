package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/zoomin/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Contains(t, bar.View(), "Ready")
}

func TestBar_States(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(b *Bar)
		want    []string
		notWant []string
	}{
		{
			name: "searching shows stage message and cancel hint",
			setup: func(b *Bar) {
				b.SetState(StateSearching)
				b.SetMessage("Scoring files")
			},
			want: []string{"Scoring files", "stop the running stage"},
		},
		{
			name:  "searching without message",
			setup: func(b *Bar) { b.SetState(StateSearching) },
			want:  []string{"Searching..."},
		},
		{
			name: "error shows message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("oracle transport error")
			},
			want: []string{"Error: oracle transport error"},
		},
		{
			name:    "results without drops",
			setup:   func(b *Bar) { b.SetResults(3, 0) },
			want:    []string{"3 results", "new query"},
			notWant: []string{"dropped"},
		},
		{
			name:  "results with drops",
			setup: func(b *Bar) { b.SetResults(1, 2) },
			want:  []string{"1 results", "(2 dropped)"},
		},
		{
			name: "ready with message",
			setup: func(b *Bar) {
				b.SetMessage("Prompt folder_scoring reloaded")
			},
			want: []string{"Prompt folder_scoring reloaded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())
			bar.SetWidth(200)
			tt.setup(bar)

			view := bar.View()
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, view, w)
			}
		})
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetResults(5, 1)
	bar.SetMessage("x")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 0, bar.ResultCount())
	assert.Empty(t, bar.Message())
}
