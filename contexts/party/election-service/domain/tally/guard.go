package tally

import "payparty/contexts/party/election-service/domain/entities"

// HasVoted reports whether existing already holds a ballot from voter for
// electionID.
func HasVoted(existing []entities.Ballot, electionID string, voter string) bool {
	for _, ballot := range existing {
		if entities.SameIdentity(ballot.ElectionID, electionID) && entities.SameIdentity(ballot.Voter, voter) {
			return true
		}
	}
	return false
}
