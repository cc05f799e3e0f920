package shared

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rangeQuery struct {
	From time.Time `query:"from" validate:"required"`
	To   time.Time `query:"to" validate:"required,gtefield=From"`
}

func TestDecoder_ParsesDates(t *testing.T) {
	var q rangeQuery
	require.NoError(t, Decoder.Decode(&q, url.Values{"from": {"2024-01-01"}, "to": {" 2024-01-31 "}}))
	require.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), q.To)
	require.NoError(t, Validate.Struct(&q))
}

func TestValidate_ReportsQueryNames(t *testing.T) {
	var q rangeQuery
	require.NoError(t, Decoder.Decode(&q, url.Values{"from": {"2024-02-01"}, "to": {"2024-01-01"}}))
	err := Validate.Struct(&q)
	require.Error(t, err)
	require.Contains(t, err.Error(), "'to'")
}
