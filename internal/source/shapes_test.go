package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordJSON = `{
	"id": "101",
	"date": "2023-06-01 12:00:00",
	"sender_type": 1,
	"sender_id": "42",
	"receiver_type": 2,
	"receiver_id": "1234",
	"note": "deposit",
	"tax_id": null,
	"money": 500,
	"steel": 10.5
}`

func TestDecodeFlat(t *testing.T) {
	body := `{"data":{"bankrecs":[` + recordJSON + `]}}`

	recs, err := decodeFlat([]byte(body))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec, err := recs[0].toRecord()
	require.NoError(t, err)
	assert.Equal(t, int64(101), rec.ID)
	assert.Equal(t, int64(42), rec.SenderID)
	assert.Equal(t, int64(1234), rec.ReceiverID)
	assert.Equal(t, int64(0), rec.TaxMarker)
	assert.Equal(t, 500.0, rec.Amounts.Money)
	assert.Equal(t, 10.5, rec.Amounts.Steel)
	assert.Equal(t, "deposit", rec.Note)
	assert.False(t, rec.OccurredAt.IsZero())
}

func TestDecodeFlat_PaginatedBodyIsMismatch(t *testing.T) {
	body := `{"data":{"bankrecs":{"data":[` + recordJSON + `]}}}`

	_, err := decodeFlat([]byte(body))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDecodePaginated(t *testing.T) {
	body := `{"data":{"bankrecs":{"data":[` + recordJSON + `],"paginatorInfo":{"hasMorePages":false}}}}`

	recs, err := decodePaginated([]byte(body))
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestDecodePaginated_FlatBodyIsMismatch(t *testing.T) {
	body := `{"data":{"bankrecs":[` + recordJSON + `]}}`

	_, err := decodePaginated([]byte(body))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDecodeNested(t *testing.T) {
	body := `{"data":{"alliances":{"data":[{"bankrecs":[` + recordJSON + `]},{"bankrecs":[]}]}}}`

	recs, err := decodeNested([]byte(body))
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestDecodeNested_MissingAlliancesIsMismatch(t *testing.T) {
	body := `{"data":{"bankrecs":[]}}`

	_, err := decodeNested([]byte(body))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDecodeEnvelope_UnknownFieldIsMismatch(t *testing.T) {
	body := `{"errors":[{"message":"Cannot query field \"bankrecs\" on type \"Query\"."}]}`

	_, err := decodeFlat([]byte(body))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDecodeEnvelope_OtherServerErrorIsNotMismatch(t *testing.T) {
	body := `{"errors":[{"message":"internal server error"}]}`

	_, err := decodeFlat([]byte(body))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrShapeMismatch)
}

func TestRawRecord_NumericIDsAccepted(t *testing.T) {
	// Older upstream versions emit ids as JSON numbers, not strings.
	body := `{"data":{"bankrecs":[{"id":7,"date":"2023-06-01T12:00:00Z","sender_type":2,"sender_id":10,"receiver_type":2,"receiver_id":20,"tax_id":3,"food":1}]}}`

	recs, err := decodeFlat([]byte(body))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec, err := recs[0].toRecord()
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, int64(3), rec.TaxMarker)
	assert.Equal(t, 1.0, rec.Amounts.Food)
}

func TestShapeQueries_CarryScopeAndCursor(t *testing.T) {
	for _, shape := range shapes {
		q := shape.query(scopeForTest(), 100, 50)
		assert.Contains(t, q, "min_id:100", "shape %s", shape.name)
		assert.Contains(t, q, "1234", "shape %s", shape.name)
	}
}
