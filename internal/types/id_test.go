package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDDepth(t *testing.T) {
	assert.Equal(t, 0, IDDepth("proj-a3f8"))
	assert.Equal(t, 1, IDDepth("proj-a3f8.2"))
	assert.Equal(t, 2, IDDepth("proj-a3f8.2.1"))
}

func TestValidateHierarchicalID(t *testing.T) {
	tests := []struct {
		id      string
		kind    Kind
		wantErr bool
	}{
		{"proj-a3f8", KindEpic, false},
		{"proj-a3f8.2", KindStory, false},
		{"proj-a3f8.2.1", KindTask, false},
		{"proj-a3f8.2.1.4", KindSubtask, false},
		{"proj-a3f8.2", KindEpic, true},
		{"proj-a3f8", KindStory, true},
		{"proj-a3f8.2", KindTask, true},
		{"proj-a3f8.x", KindStory, true},
		{"a3f8", KindEpic, true},
		{"", KindEpic, true},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+string(tt.kind), func(t *testing.T) {
			err := ValidateHierarchicalID(tt.id, tt.kind)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParentOfAndParentage(t *testing.T) {
	assert.Equal(t, "proj-a3f8.2", ParentOf("proj-a3f8.2.1"))
	assert.Equal(t, "proj-a3f8", ParentOf("proj-a3f8.2"))
	assert.Equal(t, "", ParentOf("proj-a3f8"))

	assert.NoError(t, ValidateParentage("proj-a3f8.2.1", "proj-a3f8.2"))
	assert.Error(t, ValidateParentage("proj-a3f8.2.1", "proj-a3f8"))
	assert.Error(t, ValidateParentage("proj-a3f8", "proj-a3f8"))
}

func TestLooksLikeID(t *testing.T) {
	for _, s := range []string{"proj-a3f8", "proj-a3f8.2", "bd-1.2.3", "my_app-x9"} {
		assert.True(t, LooksLikeID(s), s)
	}
	for _, s := range []string{"MVP", "P1", "proj-", "proj-a.x", "-a3f8", "proj a3f8"} {
		assert.False(t, LooksLikeID(s), s)
	}
}
