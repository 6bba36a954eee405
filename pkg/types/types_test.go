package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionDomains(t *testing.T) {
	tests := []struct {
		name  string
		calls []string
		want  []string
	}{
		{
			name:  "single call",
			calls: []string{"light.turn_on"},
			want:  []string{"light"},
		},
		{
			name:  "duplicate domains collapse",
			calls: []string{"light.turn_on", "light.turn_off", "switch.toggle"},
			want:  []string{"light", "switch"},
		},
		{
			name:  "sorted output",
			calls: []string{"switch.turn_on", "climate.set_temperature", "light.turn_on"},
			want:  []string{"climate", "light", "switch"},
		},
		{
			name:  "call without dot is its own domain",
			calls: []string{"homeassistant"},
			want:  []string{"homeassistant"},
		},
		{
			name:  "empty calls",
			calls: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Automation{ActionCalls: tt.calls}
			assert.Equal(t, tt.want, a.ActionDomains())
		})
	}
}

func TestHasActionDomain(t *testing.T) {
	a := Automation{ActionCalls: []string{"light.turn_on", "notify.mobile_app"}}

	assert.True(t, a.HasActionDomain("light"))
	assert.True(t, a.HasActionDomain("notify"))
	assert.False(t, a.HasActionDomain("switch"))
	// Prefix must be a full domain, not a substring
	assert.False(t, a.HasActionDomain("lig"))
}

func TestHasTrigger(t *testing.T) {
	a := Automation{TriggerTypes: []string{"state", "time"}}

	assert.True(t, a.HasTrigger("state"))
	assert.False(t, a.HasTrigger("webhook"))
}

func TestAutomationValidate(t *testing.T) {
	valid := Automation{RepositoryID: 1, Alias: "Morning lights"}
	require.NoError(t, valid.Validate())

	orphan := Automation{Alias: "No repo"}
	assert.ErrorIs(t, orphan.Validate(), ErrOrphanAutomation)

	unnamed := Automation{RepositoryID: 1, Alias: "   "}
	assert.ErrorIs(t, unnamed.Validate(), ErrEmptyAlias)
}

func TestSearchQueryNormalize(t *testing.T) {
	q := SearchQuery{Term: "  Motion Light ", TriggerFilter: " State", Page: 0, PerPage: 0}
	q.Normalize()

	assert.Equal(t, "motion light", q.Term)
	assert.Equal(t, "state", q.TriggerFilter)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPerPage, q.PerPage)
}

func TestSearchQueryNormalizeClampsPerPage(t *testing.T) {
	q := SearchQuery{PerPage: 10000}
	q.Normalize()
	assert.Equal(t, MaxPerPage, q.PerPage)
}

func TestSearchQueryValidate(t *testing.T) {
	q := SearchQuery{Term: strings.Repeat("a", MaxTermLength+1)}
	q.Normalize()
	assert.ErrorIs(t, q.Validate(), ErrTermTooLong)

	q = SearchQuery{Term: "light\x00"}
	assert.ErrorIs(t, q.Validate(), ErrInvalidTerm)

	q = SearchQuery{Term: "light"}
	q.Normalize()
	assert.NoError(t, q.Validate())
}

func TestSearchQueryOffset(t *testing.T) {
	q := SearchQuery{Page: 3, PerPage: 50}
	assert.Equal(t, 100, q.Offset())
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension(" Trigger_Type ")
	require.NoError(t, err)
	assert.Equal(t, DimTriggerType, d)

	_, err = ParseDimension("bogus")
	assert.ErrorIs(t, err, ErrUnknownDimension)
}
