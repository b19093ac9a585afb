package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/houseledger/internal/model"
)

const alicePayload = `{"owners_name":"Alice","location":"Lagos","house_type":"flat","price":1000,"availabile_units":2,"availability":true}`

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// runJSON executes a command against db with JSON output and decodes data
// into dst.
func runJSON(t *testing.T, db string, dst any, args ...string) CLIResponse {
	t.Helper()
	out, err := run(t, append([]string{"--format", "json", "--db", db}, args...)...)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s (err %v)", out, err)
	if dst != nil && resp.Data != nil {
		raw, merr := json.Marshal(resp.Data)
		require.NoError(t, merr)
		require.NoError(t, json.Unmarshal(raw, dst))
	}
	return resp
}

func TestHouseCommands_Lifecycle(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "houses.db")

	var added model.House
	resp := runJSON(t, db, &added, "add", "--payload", alicePayload)
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint64(1), added.ID)
	assert.False(t, added.UpdatedAt.IsSet())

	// Each command is a separate process; state comes back from SQLite.
	var repriced model.House
	runJSON(t, db, &repriced, "set-price", "1", "1200")
	assert.Equal(t, uint64(1200), repriced.Price)
	assert.True(t, repriced.UpdatedAt.IsSet())

	var found []model.House
	runJSON(t, db, &found, "search", "LAGOS")
	require.Len(t, found, 1)

	runJSON(t, db, &found, "search-price", "1200")
	require.Len(t, found, 1)

	var available bool
	runJSON(t, db, &available, "availability", "1")
	assert.True(t, available)

	runJSON(t, db, nil, "set-unavailable", "1")
	runJSON(t, db, &found, "list", "--available")
	assert.Empty(t, found)

	var history []model.ChangeRecord
	runJSON(t, db, &history, "history", "1")
	require.Len(t, history, 3)
	assert.Equal(t, model.ChangePrice, history[1].ChangeType)
	assert.Equal(t, model.ChangeAvailability, history[2].ChangeType)

	runJSON(t, db, nil, "delete", "1")

	resp = runJSON(t, db, nil, "get", "1")
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Equal(t, "a house with id=1 not found", resp.Error.Message)

	runJSON(t, db, &history, "history", "1")
	require.Len(t, history, 4)
	assert.Equal(t, model.ChangeDeletion, history[3].ChangeType)

	// Ids are never reused.
	runJSON(t, db, &added, "add", "--payload", alicePayload)
	assert.Equal(t, uint64(2), added.ID)
}

func TestHouseCommands_Errors(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "houses.db")

	_, err := run(t, "--db", db, "get", "9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = run(t, "--db", db, "get", "nine")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid id "nine"`)

	resp := runJSON(t, db, nil, "add", "--payload", `{"owners_name":"Alice"}`)
	assert.Equal(t, CodeInvalidPayload, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)

	runJSON(t, db, nil, "add", "--payload", alicePayload)
	resp = runJSON(t, db, nil, "buy", "1", "--payload",
		`{"owners_name":"Alice","location":"Lagos","house_type":"flat","price":1000,"availabile_units":0,"availability":false}`)
	assert.Equal(t, CodeInsufficientUnits, resp.Error.Code)

	_, err = run(t, "--db", db, "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload")
}

func TestHouseCommands_AmountOverflow(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "houses.db")
	runJSON(t, db, nil, "add", "--payload", alicePayload)

	for _, args := range [][]string{
		{"set-price", "1", "9223372036854775808"},
		{"search-price", "18446744073709551615"},
		{"inspect", db, "--price", "9223372036854775808"},
	} {
		_, err := run(t, append([]string{"--db", db}, args...)...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, ExitCommandError, GetExitCode(err), "%v", args)
		assert.Contains(t, err.Error(), "must not exceed 9223372036854775807")
	}

	resp := runJSON(t, db, nil, "add", "--payload",
		`{"owners_name":"Bola","location":"Ibadan","house_type":"flat","price":9223372036854775808,"availabile_units":1,"availability":true}`)
	assert.Equal(t, CodeInvalidPayload, resp.Error.Code)

	var h model.House
	runJSON(t, db, &h, "set-price", "1", "9223372036854775807")
	assert.Equal(t, uint64(9223372036854775807), h.Price)

	runJSON(t, db, &h, "get", "1")
	assert.Equal(t, uint64(9223372036854775807), h.Price)
}

func TestHouseCommands_TextOutput(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "houses.db")

	_, err := run(t, "--db", db, "add", "--payload", alicePayload)
	require.NoError(t, err)

	out, err := run(t, "--db", db, "sort")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "UPDATED")

	out, err = run(t, "--db", db, "history", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "creation")
}

func TestExportImport(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	snapshot := filepath.Join(dir, "snap.json")

	runJSON(t, src, nil, "add", "--payload", alicePayload)
	runJSON(t, src, nil, "set-price", "1", "1500")

	var summary BackupSummary
	runJSON(t, src, &summary, "export", snapshot)
	assert.Equal(t, 1, summary.Houses)
	assert.Equal(t, 2, summary.Changes)
	assert.Equal(t, uint64(1), summary.LastID)

	runJSON(t, dst, &summary, "import", snapshot)
	assert.Equal(t, 1, summary.Houses)

	var h model.House
	runJSON(t, dst, &h, "get", "1")
	assert.Equal(t, uint64(1500), h.Price)

	var added model.House
	runJSON(t, dst, &added, "add", "--payload", alicePayload)
	assert.Equal(t, uint64(2), added.ID)

	_, err := run(t, "--db", dst, "import", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestInspect(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "houses.db")

	runJSON(t, db, nil, "add", "--payload", alicePayload)
	runJSON(t, db, nil, "add", "--payload",
		`{"owners_name":"Bola","location":"Ibadan","house_type":"bungalow","price":500,"availabile_units":1,"availability":false}`)

	var houses []model.House
	runJSON(t, db, &houses, "inspect", "--sort-name")
	require.Len(t, houses, 2)
	assert.Equal(t, "Alice", houses[0].OwnersName)

	runJSON(t, db, &houses, "inspect", "--available")
	require.Len(t, houses, 1)
	assert.Equal(t, uint64(1), houses[0].ID)

	runJSON(t, db, &houses, "inspect", "--text", "ibadan", "--price", "500")
	require.Len(t, houses, 1)
	assert.Equal(t, "Bola", houses[0].OwnersName)

	runJSON(t, db, &houses, "inspect", "--price", "0")
	assert.Empty(t, houses)
}
