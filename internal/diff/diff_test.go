package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Diff(t *testing.T) {
	tests := []struct {
		name      string
		old, new  string
		context   int
		want      string
		additions int
		deletions int
	}{
		{
			name:    "identical",
			old:     "a\nb\n",
			new:     "a\nb\n",
			context: 3,
			want:    "",
		},
		{
			name:      "single line change",
			old:       "a\nb\nc\n",
			new:       "a\nB\nc\n",
			context:   1,
			want:      "@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
			additions: 1,
			deletions: 1,
		},
		{
			name:      "new file",
			old:       "",
			new:       "x\n",
			context:   3,
			want:      "@@ -0,0 +1,1 @@\n+x\n",
			additions: 1,
		},
		{
			name:      "deleted content",
			old:       "x\ny",
			new:       "",
			context:   3,
			want:      "@@ -1,2 +0,0 @@\n-x\n-y\n",
			deletions: 2,
		},
		{
			name:      "no context",
			old:       "a\nb\nc\n",
			new:       "a\nc\n",
			context:   0,
			want:      "@@ -2,1 +1,0 @@\n-b\n",
			deletions: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewEngine(tt.context).Diff([]byte(tt.old), []byte(tt.new))
			assert.Equal(t, tt.want, r.Format())
			assert.Equal(t, tt.additions, r.Stats.Additions)
			assert.Equal(t, tt.deletions, r.Stats.Deletions)
			assert.Equal(t, tt.additions+tt.deletions, r.Stats.Changes)
		})
	}
}

func TestEngine_SplitsDistantChanges(t *testing.T) {
	old := strings.Join([]string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, "\n")
	changed := strings.Join([]string{"1", "two", "3", "4", "5", "6", "7", "8", "nine", "10"}, "\n")

	r := NewEngine(1).Diff([]byte(old), []byte(changed))
	require.Len(t, r.Hunks, 2)

	assert.Equal(t, 1, r.Hunks[0].OldStart)
	assert.Equal(t, 3, r.Hunks[0].OldLines)
	assert.Equal(t, 8, r.Hunks[1].OldStart)
	assert.Equal(t, 3, r.Hunks[1].NewLines)

	joined := NewEngine(4).Diff([]byte(old), []byte(changed))
	assert.Len(t, joined.Hunks, 1)
}

func TestEngine_LineNumbers(t *testing.T) {
	r := NewEngine(0).Diff([]byte("a\nb\n"), []byte("a\nc\nb\n"))
	require.Len(t, r.Hunks, 1)
	require.Len(t, r.Hunks[0].Lines, 1)

	line := r.Hunks[0].Lines[0]
	assert.Equal(t, Addition, line.Type)
	assert.Equal(t, "c", line.Content)
	assert.Equal(t, 2, line.NewNum)
	assert.Equal(t, 0, line.OldNum)
}
