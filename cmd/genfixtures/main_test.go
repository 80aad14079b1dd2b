package main

import (
	"testing"

	"github.com/couchcryptid/edf-plant-map/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrim(t *testing.T) {
	results := []domain.RawRecord{{"centrale": "A"}, {"centrale": "B"}, {"centrale": "C"}}
	resp := domain.Response{TotalCount: 120, Results: &results}

	got := trim(resp, 2)
	require.NotNil(t, got.Results)
	assert.Equal(t, 2, got.TotalCount)
	assert.Len(t, *got.Results, 2)

	all := trim(resp, 0)
	assert.Equal(t, 3, all.TotalCount)

	missing := trim(domain.Response{TotalCount: 4}, 2)
	assert.Nil(t, missing.Results)
	assert.Equal(t, 4, missing.TotalCount)
}
