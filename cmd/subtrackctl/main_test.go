package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNextCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantNext    string
		dueTomorrow bool
	}{
		{
			name:     "monthly catches up",
			args:     []string{"--start", "2024-01-01", "--period", "monthly", "--today", "2024-03-15"},
			wantNext: "2024-04-01",
		},
		{
			name:     "month end clamps",
			args:     []string{"--start", "2024-01-31", "--period", "monthly", "--today", "2024-02-10"},
			wantNext: "2024-02-29",
		},
		{
			name:        "due tomorrow",
			args:        []string{"--start", "2024-05-02", "--period", "monthly", "--today", "2024-06-01"},
			wantNext:    "2024-06-02",
			dueTomorrow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"next"}, tt.args...)...)
			require.NoError(t, err)

			var got nextResult
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.wantNext, got.Next)
			assert.Equal(t, tt.dueTomorrow, got.DueTomorrow)
		})
	}
}

func TestNextCommand_Errors(t *testing.T) {
	_, err := execute(t, "next", "--start", "2024-01-01", "--period", "fortnightly")
	assert.Error(t, err)

	_, err = execute(t, "next", "--start", "not-a-date", "--period", "monthly")
	assert.Error(t, err)

	_, err = execute(t, "next", "--period", "monthly")
	assert.Error(t, err)

	_, err = execute(t, "next", "--start", "2024-01-01", "--period", "monthly", "--timezone", "Mars/Olympus")
	assert.Error(t, err)
}

func TestMigrateCommand_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENV_FILE", t.TempDir()+"/missing.env")

	_, err := execute(t, "migrate", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
