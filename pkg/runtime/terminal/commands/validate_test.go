package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
)

func TestParseWeights(t *testing.T) {
	weights, err := parseWeights(map[string]string{"fin": "0.5", "ops": "0.25"})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Domain]float64{
		domain.DomainFinance:    0.5,
		domain.DomainOperations: 0.25,
	}, weights)

	_, err = parseWeights(map[string]string{"accounting": "0.5"})
	assert.ErrorContains(t, err, `unknown domain "accounting"`)

	_, err = parseWeights(map[string]string{"fin": "heavy"})
	assert.ErrorContains(t, err, `invalid value "heavy"`)

	weights, err = parseWeights(nil)
	require.NoError(t, err)
	assert.Nil(t, weights)
}

func TestResolveDomains(t *testing.T) {
	available := []domain.Domain{domain.DomainFinance, domain.DomainPeople}

	targets, err := resolveDomains([]string{"hr", "marketing"}, false, available)
	require.NoError(t, err)
	assert.Equal(t, []domain.Domain{domain.DomainPeople, domain.DomainMarketing}, targets)

	_, err = resolveDomains([]string{"accounting"}, false, available)
	assert.ErrorContains(t, err, `unknown domain "accounting"`)

	targets, err = resolveDomains(nil, true, available)
	require.NoError(t, err)
	assert.Nil(t, targets)

	targets, err = resolveDomains(nil, false, available)
	require.NoError(t, err)
	assert.Equal(t, available, targets)
}
