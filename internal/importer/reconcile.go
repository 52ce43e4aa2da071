package importer

import "bisnisflow/internal/domain"

// Reconcile splits a confirmed batch into orders to record and orders
// already in the ledger. Matching is by exact transaction id; accepted
// orders keep their batch order.
func Reconcile(existing []domain.Transaction, batch []domain.Transaction) (accepted []domain.Transaction, duplicates int) {
	seen := make(map[string]struct{}, len(existing))
	for _, tx := range existing {
		seen[tx.ID] = struct{}{}
	}
	for _, tx := range batch {
		if _, dup := seen[tx.ID]; dup {
			duplicates++
			continue
		}
		seen[tx.ID] = struct{}{}
		accepted = append(accepted, tx)
	}
	return accepted, duplicates
}
