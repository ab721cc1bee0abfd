package main

import (
	"fmt"
	"os"
	"strings"

	"payparty/contexts/party/election-service/domain/entities"

	"github.com/goccy/go-json"
)

// electionDocument is the exported election, as the party client stores it.
type electionDocument struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Creator         string   `json:"creator"`
	Kind            string   `json:"kind"`
	VoteAllocation  int      `json:"voteAllocation"`
	Candidates      []string `json:"candidates"`
	Voters          []string `json:"voters"`
	TokenAddress    string   `json:"tokenAddress"`
	FundAmount      string   `json:"fundAmount"`
	FundAmountInWei string   `json:"fundAmountInWei"`
	IsActive        bool     `json:"isActive"`
	IsPaid          bool     `json:"isPaid"`
}

type voteDocument struct {
	Address         string  `json:"address"`
	VoteAttribution float64 `json:"voteAttribution"`
}

type ballotDocument struct {
	Voter string         `json:"voter"`
	Votes []voteDocument `json:"votes"`
}

func loadElection(path string) (entities.Election, error) {
	var doc electionDocument
	if err := readJSON(path, &doc); err != nil {
		return entities.Election{}, err
	}
	if len(doc.Candidates) == 0 {
		return entities.Election{}, fmt.Errorf("%s: election has no candidates", path)
	}
	// The wei amount is authoritative; fundAmount is the display value.
	fund := strings.TrimSpace(doc.FundAmountInWei)
	if fund == "" {
		fund = strings.TrimSpace(doc.FundAmount)
	}
	if _, ok := entities.ParseFundAmount(fund); !ok {
		return entities.Election{}, fmt.Errorf("%s: fund amount %q is not a non-negative integer", path, fund)
	}

	strategy := entities.Strategy(strings.ToLower(strings.TrimSpace(doc.Kind)))
	if strategy != entities.StrategyLinear {
		strategy = entities.StrategyQuadratic
	}
	return entities.Election{
		ElectionID:     doc.ID,
		Name:           doc.Name,
		Description:    doc.Description,
		Creator:        doc.Creator,
		Strategy:       strategy,
		VoteAllocation: doc.VoteAllocation,
		Candidates:     doc.Candidates,
		Voters:         doc.Voters,
		TokenAddress:   doc.TokenAddress,
		FundAmount:     fund,
		IsActive:       doc.IsActive,
		IsPaid:         doc.IsPaid,
	}, nil
}

func loadBallots(path string, electionID string) ([]entities.Ballot, error) {
	var docs []ballotDocument
	if err := readJSON(path, &docs); err != nil {
		return nil, err
	}
	ballots := make([]entities.Ballot, 0, len(docs))
	for _, doc := range docs {
		attribution := make([]entities.VoteAttribution, 0, len(doc.Votes))
		for _, vote := range doc.Votes {
			attribution = append(attribution, entities.VoteAttribution{
				Candidate: vote.Address,
				Score:     vote.VoteAttribution,
			})
		}
		ballots = append(ballots, entities.Ballot{
			ElectionID:      electionID,
			Voter:           doc.Voter,
			VoteAttribution: attribution,
		})
	}
	return ballots, nil
}

func readJSON(path string, target any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
