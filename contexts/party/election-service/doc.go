// Package electionservice implements elections, ballots, and tallies for the
// party context.
//
// The module owns the election lifecycle (create, close, mark paid), ballot
// intake guarded against duplicate voters, and the tally and proportional
// payout reads derived from the ballot snapshot. Storage, chain anchoring,
// and event delivery sit behind ports so the tally core stays pure.
package electionservice
