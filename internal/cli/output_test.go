package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alynder/warchest/internal/engine"
	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/resource"
	"github.com/alynder/warchest/internal/store"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRenderResult_Text(t *testing.T) {
	var buf bytes.Buffer
	err := renderResult(&buf, "text", engine.Result{
		Scope:          record.AllianceScope(1234),
		PreviousCursor: 100,
		NewCursor:      103,
		RecordCount:    3,
		Totals:         resource.Vector{Money: 500},
		Applied:        true,
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "sync_result", buf.Bytes())
}

func TestRenderResult_PreviewText(t *testing.T) {
	var buf bytes.Buffer
	err := renderResult(&buf, "text", engine.Result{
		Scope:          record.OffshoreScope(1234, 5678),
		PreviousCursor: 200,
		NewCursor:      202,
		RecordCount:    2,
		Totals:         resource.Vector{Money: -2500.5, Steel: 6},
		Applied:        false,
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "preview_result", buf.Bytes())
}

func TestRenderResult_NoMovement(t *testing.T) {
	var buf bytes.Buffer
	err := renderResult(&buf, "text", engine.Result{
		Scope:          record.AllianceScope(7),
		PreviousCursor: 50,
		NewCursor:      50,
		Applied:        true,
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "empty_result", buf.Bytes())
}

func TestRenderResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := renderResult(&buf, "json", engine.Result{
		Scope:          record.AllianceScope(1234),
		PreviousCursor: 100,
		NewCursor:      103,
		RecordCount:    3,
		Totals:         resource.Vector{Money: 500},
		Applied:        true,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"scope": "alliance:1234",
		"previous_cursor": 100,
		"new_cursor": 103,
		"record_count": 3,
		"applied": true,
		"totals": {
			"money": 500, "coal": 0, "oil": 0, "uranium": 0,
			"iron": 0, "bauxite": 0, "lead": 0, "gasoline": 0,
			"munitions": 0, "steel": 0, "aluminum": 0, "food": 0
		}
	}`, buf.String())
}

func TestRenderBalance_Text(t *testing.T) {
	var buf bytes.Buffer
	err := renderBalance(&buf, "text", "member:42", resource.Vector{
		Money: 1234567.89,
		Food:  42,
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "balance", buf.Bytes())
}

func TestRenderBalance_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := renderBalance(&buf, "json", "member:42", resource.Vector{Steel: 6})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"target": "member:42",
		"amounts": {
			"money": 0, "coal": 0, "oil": 0, "uranium": 0,
			"iron": 0, "bauxite": 0, "lead": 0, "gasoline": 0,
			"munitions": 0, "steel": 6, "aluminum": 0, "food": 0
		}
	}`, buf.String())
}

func TestRenderLedger_Text(t *testing.T) {
	var buf bytes.Buffer
	err := renderLedger(&buf, "text", "member:42", []store.LedgerEntry{
		{TargetID: "member:42", Resource: resource.Steel, Amount: 25, SourceRecordID: 301},
		{TargetID: "member:42", Resource: resource.Steel, Amount: -10, SourceRecordID: 302},
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "ledger", buf.Bytes())
}

func TestRenderLedger_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := renderLedger(&buf, "text", "member:404", nil)
	require.NoError(t, err)
	assert.Equal(t, "Target:   member:404\nEntries:  0\n  (none)\n", buf.String())
}

func TestRenderLedger_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := renderLedger(&buf, "json", "member:42", []store.LedgerEntry{
		{TargetID: "member:42", Resource: resource.Money, Amount: 500, SourceRecordID: 102},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"target": "member:42",
		"entries": [
			{"record": 102, "resource": "money", "amount": 500}
		]
	}`, buf.String())
}

func TestParseScope(t *testing.T) {
	cases := []struct {
		arg     string
		want    record.Scope
		wantErr bool
	}{
		{arg: "alliance:1234", want: record.AllianceScope(1234)},
		{arg: "offshore:1234:5678", want: record.OffshoreScope(1234, 5678)},
		{arg: "alliance:0", wantErr: true},
		{arg: "alliance:12a", wantErr: true},
		{arg: "alliance", wantErr: true},
		{arg: "offshore:1234", wantErr: true},
		{arg: "offshore:1234:5678:9", wantErr: true},
		{arg: "treasury:1234", wantErr: true},
		{arg: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.arg, func(t *testing.T) {
			got, err := parseScope(tc.arg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(&ExitError{Code: ExitCommandError, Message: "bad scope"}))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errors.New("cause")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitError_Message(t *testing.T) {
	e := WrapExitError(ExitFailure, "sync failed", errors.New("upstream down"))
	assert.Equal(t, "sync failed: upstream down", e.Error())
	assert.EqualError(t, errors.Unwrap(e), "upstream down")

	bare := &ExitError{Code: ExitFailure, Message: "sync failed"}
	assert.Equal(t, "sync failed", bare.Error())
}
