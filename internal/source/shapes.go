package source

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/resource"
)

// recordFields is the selection set shared by every query shape.
const recordFields = "id date sender_type sender_id receiver_type receiver_id note tax_id " +
	"money coal oil uranium iron bauxite lead gasoline munitions steel aluminum food"

// rawRecord is the wire form of a bank record. Numeric identifiers arrive
// as either JSON numbers or strings depending on the upstream version, so
// they are staged through json.Number. The embedded Vector picks up the
// twelve inline amount fields.
type rawRecord struct {
	ID           json.Number `json:"id"`
	Date         string      `json:"date"`
	SenderType   int         `json:"sender_type"`
	SenderID     json.Number `json:"sender_id"`
	ReceiverType int         `json:"receiver_type"`
	ReceiverID   json.Number `json:"receiver_id"`
	Note         string      `json:"note"`
	TaxID        json.Number `json:"tax_id"`

	resource.Vector
}

// dateLayouts are the timestamp formats upstream has been observed to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func (r rawRecord) toRecord() (record.BankRecord, error) {
	id, err := r.ID.Int64()
	if err != nil {
		return record.BankRecord{}, fmt.Errorf("record id %q: %w", r.ID, err)
	}
	senderID, err := r.SenderID.Int64()
	if err != nil {
		return record.BankRecord{}, fmt.Errorf("record %d sender_id %q: %w", id, r.SenderID, err)
	}
	receiverID, err := r.ReceiverID.Int64()
	if err != nil {
		return record.BankRecord{}, fmt.Errorf("record %d receiver_id %q: %w", id, r.ReceiverID, err)
	}

	// tax_id is absent on non-tax records; treat missing as zero.
	var taxID int64
	if r.TaxID.String() != "" {
		taxID, err = r.TaxID.Int64()
		if err != nil {
			return record.BankRecord{}, fmt.Errorf("record %d tax_id %q: %w", id, r.TaxID, err)
		}
	}

	var occurredAt time.Time
	for _, layout := range dateLayouts {
		if t, perr := time.Parse(layout, r.Date); perr == nil {
			occurredAt = t
			break
		}
	}

	return record.BankRecord{
		ID:           id,
		OccurredAt:   occurredAt,
		SenderRole:   record.Role(r.SenderType),
		SenderID:     senderID,
		ReceiverRole: record.Role(r.ReceiverType),
		ReceiverID:   receiverID,
		Note:         r.Note,
		TaxMarker:    taxID,
		Amounts:      r.Vector,
	}, nil
}

// shapeAdapter is one known upstream response shape: the query that
// requests it and a pure decoder from the raw response body to records.
//
// A decoder returns an error wrapping ErrShapeMismatch when the body is
// recognizably the wrong shape (missing key, list where an object was
// expected, or an unknown-field error from the server). Any other decode
// failure is a plain error and is not recovered by probing further shapes.
type shapeAdapter struct {
	name   string
	query  func(scope record.Scope, sinceID int64, limit int) string
	decode func(body []byte) ([]rawRecord, error)
}

// shapes lists the known adapters in probe preference order.
var shapes = []shapeAdapter{
	{name: "flat", query: flatQuery, decode: decodeFlat},
	{name: "paginated", query: paginatedQuery, decode: decodePaginated},
	{name: "nested", query: nestedQuery, decode: decodeNested},
}

func scopeFilter(scope record.Scope) string {
	if scope.Kind == record.ScopeOffshorePair {
		return fmt.Sprintf("alliance_id:[%d,%d]", scope.Owner, scope.Offshore)
	}
	return fmt.Sprintf("alliance_id:[%d]", scope.AllianceID)
}

func flatQuery(scope record.Scope, sinceID int64, limit int) string {
	return fmt.Sprintf("{bankrecs(%s,min_id:%d,limit:%d,orderBy:{column:ID,order:ASC}){%s}}",
		scopeFilter(scope), sinceID, limit, recordFields)
}

func paginatedQuery(scope record.Scope, sinceID int64, limit int) string {
	return fmt.Sprintf("{bankrecs(%s,min_id:%d,first:%d,orderBy:{column:ID,order:ASC}){data{%s}}}",
		scopeFilter(scope), sinceID, limit, recordFields)
}

func nestedQuery(scope record.Scope, sinceID int64, limit int) string {
	return fmt.Sprintf("{alliances(%s){data{bankrecs(min_id:%d,limit:%d){%s}}}}",
		scopeFilter(scope), sinceID, limit, recordFields)
}

// gqlError is one entry of a query-language error response.
type gqlError struct {
	Message string `json:"message"`
}

// envelope is the common response wrapper: a data payload plus optional
// server-side query errors.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// shapeErrorSignatures are server error messages that recognizably mean
// "your query does not match my schema" rather than a transient failure.
var shapeErrorSignatures = []string{
	"cannot query field",
	"unknown field",
	"unknown argument",
	"doesn't exist on type",
}

func isShapeError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, sig := range shapeErrorSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// decodeEnvelope unwraps the response envelope, turning recognizable
// schema errors into ErrShapeMismatch and all other server errors into
// plain errors.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for _, e := range env.Errors {
		if isShapeError(e.Message) {
			return nil, fmt.Errorf("server rejected query (%s): %w", e.Message, ErrShapeMismatch)
		}
	}
	if len(env.Errors) > 0 {
		return nil, fmt.Errorf("server error: %s", env.Errors[0].Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("empty data payload: %w", ErrShapeMismatch)
	}
	return env.Data, nil
}

// decodeFlat handles {"data":{"bankrecs":[...]}}.
func decodeFlat(body []byte) ([]rawRecord, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Bankrecs json.RawMessage `json:"bankrecs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode flat payload: %w", err)
	}
	if len(payload.Bankrecs) == 0 || string(payload.Bankrecs) == "null" {
		return nil, fmt.Errorf("flat: no bankrecs list: %w", ErrShapeMismatch)
	}
	var recs []rawRecord
	if err := json.Unmarshal(payload.Bankrecs, &recs); err != nil {
		// bankrecs is present but not a list: the paginated shape.
		return nil, fmt.Errorf("flat: bankrecs is not a list: %w", ErrShapeMismatch)
	}
	return recs, nil
}

// decodePaginated handles {"data":{"bankrecs":{"data":[...],"paginatorInfo":{...}}}}.
func decodePaginated(body []byte) ([]rawRecord, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Bankrecs *struct {
			Data []rawRecord `json:"data"`
		} `json:"bankrecs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("paginated: bankrecs is not paginator-wrapped: %w", ErrShapeMismatch)
	}
	if payload.Bankrecs == nil {
		return nil, fmt.Errorf("paginated: no bankrecs object: %w", ErrShapeMismatch)
	}
	return payload.Bankrecs.Data, nil
}

// decodeNested handles {"data":{"alliances":{"data":[{"bankrecs":[...]}]}}}.
func decodeNested(body []byte) ([]rawRecord, error) {
	data, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Alliances *struct {
			Data []struct {
				Bankrecs []rawRecord `json:"bankrecs"`
			} `json:"data"`
		} `json:"alliances"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("nested: unexpected alliances payload: %w", ErrShapeMismatch)
	}
	if payload.Alliances == nil {
		return nil, fmt.Errorf("nested: no alliances object: %w", ErrShapeMismatch)
	}
	var recs []rawRecord
	for _, a := range payload.Alliances.Data {
		recs = append(recs, a.Bankrecs...)
	}
	return recs, nil
}
