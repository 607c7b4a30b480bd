package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alynder/warchest/internal/record"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validScenario = `
name: sample
description: one deposit
scope:
  alliance: 1234
ticks:
  - records:
      - id: 1
        sender_role: nation
        sender_id: 42
        receiver_role: alliance
        receiver_id: 1234
        amounts: {steel: 5}
`

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, validScenario))
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	scope, err := s.Scope.scope()
	require.NoError(t, err)
	assert.Equal(t, record.AllianceScope(1234), scope)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: typo
description: misspelled key
scope:
  alliance: 1
tick:
  - records: []
`))
	assert.Error(t, err, "unknown top-level key must be rejected")
}

func TestLoadScenario_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: "description: d\nscope:\n  alliance: 1\nticks:\n  - records: []\n",
			want: "name is required",
		},
		{
			name: "missing description",
			body: "name: n\nscope:\n  alliance: 1\nticks:\n  - records: []\n",
			want: "description is required",
		},
		{
			name: "empty scope",
			body: "name: n\ndescription: d\nticks:\n  - records: []\n",
			want: "scope must set",
		},
		{
			name: "mixed scope forms",
			body: "name: n\ndescription: d\nscope:\n  alliance: 1\n  owner: 2\n  offshore: 3\nticks:\n  - records: []\n",
			want: "scope must set",
		},
		{
			name: "no ticks",
			body: "name: n\ndescription: d\nscope:\n  alliance: 1\n",
			want: "ticks list is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadScenario_RecordValidation(t *testing.T) {
	const dupe = `
name: n
description: d
scope:
  alliance: 1
ticks:
  - records:
      - id: 5
        sender_role: nation
        sender_id: 1
        receiver_role: alliance
        receiver_id: 1
        amounts: {money: 1}
      - id: 5
        sender_role: nation
        sender_id: 1
        receiver_role: alliance
        receiver_id: 1
        amounts: {money: 1}
`
	_, err := LoadScenario(writeScenario(t, dupe))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate record id")

	const badResource = `
name: n
description: d
scope:
  alliance: 1
ticks:
  - records:
      - id: 5
        sender_role: nation
        sender_id: 1
        receiver_role: alliance
        receiver_id: 1
        amounts: {plutonium: 1}
`
	_, err = LoadScenario(writeScenario(t, badResource))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resource")

	const badRole = `
name: n
description: d
scope:
  alliance: 1
ticks:
  - records:
      - id: 5
        sender_role: pirate
        sender_id: 1
        receiver_role: alliance
        receiver_id: 1
        amounts: {money: 1}
`
	_, err = LoadScenario(writeScenario(t, badRole))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sender_role")
}
