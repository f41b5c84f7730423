package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/skill-matcher/internal/types"
)

func TestStringArray_Scan(t *testing.T) {
	tests := []struct {
		name     string
		src      interface{}
		expected StringArray
		wantErr  bool
	}{
		{name: "nil", src: nil, expected: StringArray{}},
		{name: "bytes", src: []byte(`["React","Node.js"]`), expected: StringArray{"React", "Node.js"}},
		{name: "string", src: `["Go"]`, expected: StringArray{"Go"}},
		{name: "unsupported", src: 42, wantErr: true},
		{name: "invalid json", src: []byte(`{`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a StringArray
			err := a.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, a)
		})
	}
}

func TestStringArray_Value(t *testing.T) {
	v, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	v, err = StringArray{"React"}.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`["React"]`), v)
}

func TestUserRow_Profile(t *testing.T) {
	id := uuid.New()
	row := UserRow{ID: id, Name: "Alice", Email: "a@example.com", Availability: types.AvailabilityBusy}

	p := row.Profile()
	assert.Equal(t, id, p.ID)
	assert.Equal(t, []string{}, p.Skills)
	assert.Equal(t, types.AvailabilityBusy, p.Availability)
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS projects")
}
