// Package numbering holds the pure functions that derive and
// canonicalize queue ticket numbers. Nothing here ever fails:
// malformed input degrades to a best-effort value because a bad
// number already on the shared ledger cannot be rejected after the
// fact.
package numbering

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/branchops/branch-queue/internal/domain"
)

// SentinelPrefix is assigned to services outside the fixed set.
const SentinelPrefix = "Z"

var (
	prefixedPattern = regexp.MustCompile(`^[A-Za-z]\d+$`)
	digitsPattern   = regexp.MustCompile(`^\d+$`)
)

// PrefixForService maps a service name to its single-letter queue
// prefix. Total: unknown services get the sentinel.
func PrefixForService(service string) string {
	switch service {
	case domain.ServiceTeller:
		return "A"
	case domain.ServiceCustomerService:
		return "B"
	case domain.ServiceCredit:
		return "C"
	case domain.ServiceAccountOpening:
		return "D"
	case domain.ServiceCardATM:
		return "E"
	default:
		return SentinelPrefix
	}
}

// NextNumber derives the number that follows the last ticket issued
// for prefix, in ledger order. With no prior ticket the sequence
// starts at <prefix>001. No gap filling: the sequence simply continues
// from the last number seen, whatever it is.
func NextNumber(prefix string, tickets []domain.Ticket) string {
	last := ""
	for _, t := range tickets {
		if t.Prefix == prefix {
			last = t.Number
		}
	}
	if last == "" {
		return prefix + "001"
	}
	n, ok := Suffix(last)
	if !ok {
		n = 0
	}
	return prefix + pad(n+1)
}

// Normalize canonicalizes a raw number token to <letter><3-digit>
// form. A letter+digits token keeps its own letter and re-pads the
// digits; a bare digit string is prefixed via PrefixForService. Any
// other shape passes through unchanged. The bool reports whether the
// input matched a recognized shape, so callers can log anomalies; the
// value itself is always usable.
func Normalize(raw, service string) (string, bool) {
	switch {
	case prefixedPattern.MatchString(raw):
		n, _ := strconv.Atoi(raw[1:])
		return raw[:1] + pad(n), true
	case digitsPattern.MatchString(raw):
		n, _ := strconv.Atoi(raw)
		return PrefixForService(service) + pad(n), true
	default:
		return raw, false
	}
}

// EstimateNext predicts the number a customer drawing now would get,
// from the latest active number for the service. An empty latest
// assumes ticket 001 is already in progress, so the estimate is 002.
// Unparsable digits degrade to 1, giving an estimate of 2.
func EstimateNext(service, latest string) string {
	prefix := PrefixForService(service)
	if latest == "" {
		return prefix + "002"
	}
	n := 1
	if v, ok := Suffix(latest); ok {
		n = v
	}
	return prefix + pad(n+1)
}

// Suffix parses the numeric part of a canonical number, i.e.
// everything after the leading letter.
func Suffix(number string) (int, bool) {
	if len(number) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(number[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// EstimateWaitMinutes estimates the wait for a held ticket given the
// currently called number, at two minutes per ticket ahead. Any parse
// failure or an already-passed number yields zero.
func EstimateWaitMinutes(own, current string) int {
	ownN, ok1 := Suffix(own)
	curN, ok2 := Suffix(current)
	if !ok1 || !ok2 || ownN <= curN {
		return 0
	}
	return (ownN - curN) * 2
}

func pad(n int) string {
	return fmt.Sprintf("%03d", n)
}
