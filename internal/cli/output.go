package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/alynder/warchest/internal/engine"
	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/resource"
	"github.com/alynder/warchest/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (scope skipped, upstream down, etc.)
	ExitCommandError = 2 // Command error (invalid config, bad scope argument, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer formats quantities with English digit grouping ("1,234,567.89").
var printer = message.NewPrinter(language.English)

// resultJSON is the wire form of an engine result for --format json.
type resultJSON struct {
	Scope          string          `json:"scope"`
	PreviousCursor int64           `json:"previous_cursor"`
	NewCursor      int64           `json:"new_cursor"`
	RecordCount    int             `json:"record_count"`
	Totals         resource.Vector `json:"totals"`
	Applied        bool            `json:"applied"`
}

// renderResult writes one engine result in the requested format.
func renderResult(w io.Writer, format string, res engine.Result) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(resultJSON{
			Scope:          res.Scope.Key(),
			PreviousCursor: res.PreviousCursor,
			NewCursor:      res.NewCursor,
			RecordCount:    res.RecordCount,
			Totals:         res.Totals,
			Applied:        res.Applied,
		})
	}

	applied := "no (preview)"
	if res.Applied {
		applied = "yes"
	}
	fmt.Fprintf(w, "Scope:    %s\n", res.Scope.Key())
	fmt.Fprintf(w, "Cursor:   %d -> %d\n", res.PreviousCursor, res.NewCursor)
	fmt.Fprintf(w, "Records:  %d\n", res.RecordCount)
	fmt.Fprintf(w, "Applied:  %s\n", applied)
	fmt.Fprintln(w, "Net movement:")
	renderVector(w, res.Totals)
	return nil
}

// renderBalance writes a target's balance in the requested format.
func renderBalance(w io.Writer, format, targetID string, v resource.Vector) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(struct {
			Target  string          `json:"target"`
			Amounts resource.Vector `json:"amounts"`
		}{Target: targetID, Amounts: v})
	}

	fmt.Fprintf(w, "Target:   %s\n", targetID)
	fmt.Fprintln(w, "Holdings:")
	renderVector(w, v)
	return nil
}

// ledgerEntryJSON is the wire form of one ledger entry for --format json.
type ledgerEntryJSON struct {
	Record   int64   `json:"record"`
	Resource string  `json:"resource"`
	Amount   float64 `json:"amount"`
}

// renderLedger writes a target's applied entries in the requested format.
func renderLedger(w io.Writer, format, targetID string, entries []store.LedgerEntry) error {
	if format == "json" {
		out := struct {
			Target  string            `json:"target"`
			Entries []ledgerEntryJSON `json:"entries"`
		}{Target: targetID, Entries: []ledgerEntryJSON{}}
		for _, e := range entries {
			out.Entries = append(out.Entries, ledgerEntryJSON{
				Record:   e.SourceRecordID,
				Resource: string(e.Resource),
				Amount:   e.Amount,
			})
		}
		return json.NewEncoder(w).Encode(out)
	}

	fmt.Fprintf(w, "Target:   %s\n", targetID)
	fmt.Fprintf(w, "Entries:  %d\n", len(entries))
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	for _, e := range entries {
		printer.Fprintf(w, "  %-10s %18.2f  record %d\n",
			string(e.Resource), e.Amount, e.SourceRecordID)
	}
	return nil
}

// renderVector prints the non-zero quantities of a vector in canonical
// resource order, or "(none)" when everything is zero.
func renderVector(w io.Writer, v resource.Vector) {
	if v.IsZero() {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, n := range resource.All {
		q := v.Get(n)
		if q == 0 {
			continue
		}
		printer.Fprintf(w, "  %-10s %18.2f\n", string(n), q)
	}
}

// parseScope turns a scope argument ("alliance:1234" or
// "offshore:<owner>:<offshore>") into a Scope.
func parseScope(arg string) (record.Scope, error) {
	var zero record.Scope
	parts := strings.Split(arg, ":")
	switch {
	case len(parts) == 2 && parts[0] == "alliance":
		id, err := parseID(parts[1])
		if err != nil {
			return zero, fmt.Errorf("invalid alliance id %q", parts[1])
		}
		return record.AllianceScope(id), nil
	case len(parts) == 3 && parts[0] == "offshore":
		owner, err := parseID(parts[1])
		if err != nil {
			return zero, fmt.Errorf("invalid owner id %q", parts[1])
		}
		offshore, err := parseID(parts[2])
		if err != nil {
			return zero, fmt.Errorf("invalid offshore id %q", parts[2])
		}
		return record.OffshoreScope(owner, offshore), nil
	}
	return zero, fmt.Errorf("invalid scope %q: want alliance:<id> or offshore:<owner>:<offshore>", arg)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
