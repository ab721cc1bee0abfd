// Package payoutservice pays out a closed election on chain.
//
// Distribute reads the final payout from the election service, drops
// zero-amount rows, submits a single Diplomat payElection transaction, marks
// the election paid, and forwards a receipt to the receipt API. Receipts that
// cannot be delivered stay pending and are retried by a worker.
package payoutservice
