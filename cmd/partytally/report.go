package main

import (
	"fmt"
	"io"
	"math/big"

	"payparty/contexts/party/election-service/domain/entities"
	"payparty/contexts/party/election-service/domain/tally"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
)

func printReport(w io.Writer, election entities.Election, result entities.TallyResult, skipped int) {
	color.Fprintf(w, "Election : <info>%s</> (%s)\n", election.Name, election.ElectionID)
	color.Fprintf(w, "Strategy : %s\n", election.Strategy)
	color.Fprintf(w, "Ballots  : <suc>%d</>\n", result.BallotCount)
	if skipped > 0 {
		color.Fprintf(w, "Skipped  : <warn>%d</> repeat ballots\n", skipped)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-44s %14s %8s  %s\n", "CANDIDATE", "SCORE", "SHARE", "PAYOUT")
	for i, candidate := range result.Candidates {
		share := 0.0
		if result.ScoreSum != 0 {
			share = result.TotalScores[i] / result.ScoreSum * 100
		}
		fmt.Fprintf(w, "%-44s %14s %7.2f%%  ",
			candidate,
			humanize.CommafWithDigits(result.TotalScores[i], 4),
			share,
		)
		color.Fprintf(w, "<suc>%s</>\n", humanize.BigComma(result.Payout[i]))
	}

	fund, ok := election.FundAmountInt()
	if !ok {
		fund = new(big.Int)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fund     : %s\n", humanize.BigComma(fund))
	fmt.Fprintf(w, "Paid out : %s\n", humanize.BigComma(sum(result.Payout)))
	color.Fprintf(w, "Dust     : <warn>%s</>\n", humanize.BigComma(tally.Dust(result.Payout, fund)))
}

func sum(values []*big.Int) *big.Int {
	total := new(big.Int)
	for _, value := range values {
		total.Add(total, value)
	}
	return total
}
