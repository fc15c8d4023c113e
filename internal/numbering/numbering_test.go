package numbering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/numbering"
)

func TestPrefixForServiceIsTotal(t *testing.T) {
	cases := map[string]string{
		domain.ServiceTeller:          "A",
		domain.ServiceCustomerService: "B",
		domain.ServiceCredit:          "C",
		domain.ServiceAccountOpening:  "D",
		domain.ServiceCardATM:         "E",
		"Notary":                      "Z",
		"":                            "Z",
	}
	for service, want := range cases {
		got := numbering.PrefixForService(service)
		require.Len(t, got, 1)
		assert.Equal(t, want, got, "service %q", service)
	}
}

func TestNextNumberStartsAt001(t *testing.T) {
	assert.Equal(t, "A001", numbering.NextNumber("A", nil))
	assert.Equal(t, "B001", numbering.NextNumber("B", []domain.Ticket{
		{Prefix: "A", Number: "A004"},
	}))
}

func TestNextNumberIncrementsLastForPrefix(t *testing.T) {
	tickets := []domain.Ticket{
		{Prefix: "A", Number: "A007"},
		{Prefix: "B", Number: "B003"},
	}
	assert.Equal(t, "A008", numbering.NextNumber("A", tickets))
	assert.Equal(t, "B004", numbering.NextNumber("B", tickets))
}

func TestNextNumberPadsAndRollsOver(t *testing.T) {
	assert.Equal(t, "A100", numbering.NextNumber("A", []domain.Ticket{
		{Prefix: "A", Number: "A099"},
	}))
	// past three digits the width simply grows
	assert.Equal(t, "A1000", numbering.NextNumber("A", []domain.Ticket{
		{Prefix: "A", Number: "A999"},
	}))
}

func TestNextNumberUsesLedgerOrderNotSorting(t *testing.T) {
	// a gap or out-of-order entry continues from the last seen number
	tickets := []domain.Ticket{
		{Prefix: "A", Number: "A009"},
		{Prefix: "A", Number: "A004"},
	}
	assert.Equal(t, "A005", numbering.NextNumber("A", tickets))
}

func TestNextNumberDegradesOnMalformedLast(t *testing.T) {
	assert.Equal(t, "A001", numbering.NextNumber("A", []domain.Ticket{
		{Prefix: "A", Number: "garbage"},
	}))
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw, service string
		want         string
		wellFormed   bool
	}{
		{"5", domain.ServiceTeller, "A005", true},
		{"A12", domain.ServiceTeller, "A012", true},
		{"A123", "whatever", "A123", true},
		{"b7", domain.ServiceTeller, "b007", true},
		{"12", "Notary", "Z012", true},
		{"??", domain.ServiceTeller, "??", false},
		{"", domain.ServiceTeller, "", false},
	}
	for _, tc := range cases {
		got, ok := numbering.Normalize(tc.raw, tc.service)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
		assert.Equal(t, tc.wellFormed, ok, "raw %q", tc.raw)
	}
}

func TestEstimateNext(t *testing.T) {
	assert.Equal(t, "A002", numbering.EstimateNext(domain.ServiceTeller, ""))
	assert.Equal(t, "A011", numbering.EstimateNext(domain.ServiceTeller, "A010"))
	// unparsable digits degrade to 1, so the estimate is 2
	assert.Equal(t, "A002", numbering.EstimateNext(domain.ServiceTeller, "A??"))
}

func TestSuffix(t *testing.T) {
	n, ok := numbering.Suffix("A010")
	require.True(t, ok)
	assert.Equal(t, 10, n)

	_, ok = numbering.Suffix("A")
	assert.False(t, ok)
	_, ok = numbering.Suffix("Axy")
	assert.False(t, ok)
}

func TestEstimateWaitMinutes(t *testing.T) {
	assert.Equal(t, 6, numbering.EstimateWaitMinutes("A010", "A007"))
	assert.Equal(t, 0, numbering.EstimateWaitMinutes("A007", "A010"))
	assert.Equal(t, 0, numbering.EstimateWaitMinutes("A010", "bogus"))
}
