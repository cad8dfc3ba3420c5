package provider

import (
	"strings"

	"github.com/amirasaad/paylink/pkg/domain/transaction"
)

// StatusTable maps a provider's status vocabulary onto the three
// transaction statuses. Keys are matched case-insensitively.
type StatusTable map[string]transaction.Status

// NewStatusTable lower-cases the keys of m.
func NewStatusTable(m map[string]transaction.Status) StatusTable {
	t := make(StatusTable, len(m))
	for k, v := range m {
		t[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return t
}

// Normalize returns the mapped status, or pending for anything unknown.
func (t StatusTable) Normalize(raw string) transaction.Status {
	if s, ok := t[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return transaction.StatusPending
}

// Known reports whether raw is in the table.
func (t StatusTable) Known(raw string) bool {
	_, ok := t[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
