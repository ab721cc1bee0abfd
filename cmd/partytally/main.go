// Command partytally recounts an exported election offline. It reads the
// election document and its ballots, runs the same tally the service uses,
// and prints the scores, payout split, and undistributed dust.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"payparty/contexts/party/election-service/domain/entities"
	domainerrors "payparty/contexts/party/election-service/domain/errors"
	"payparty/contexts/party/election-service/domain/tally"

	"github.com/gookit/color"
	"github.com/schollz/progressbar/v3"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitMalformed = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	flags := flag.NewFlagSet("partytally", flag.ContinueOnError)
	flags.SetOutput(stderr)
	electionPath := flags.String("election", "", "Exported election JSON document")
	ballotsPath := flags.String("ballots", "", "Exported ballots JSON array")
	quiet := flags.Bool("quiet", false, "Hide the progress bar")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	if *electionPath == "" || *ballotsPath == "" {
		flags.PrintDefaults()
		return exitUsage
	}

	election, err := loadElection(*electionPath)
	if err != nil {
		printError(stderr, err)
		return exitFailure
	}
	ballots, err := loadBallots(*ballotsPath, election.ElectionID)
	if err != nil {
		printError(stderr, err)
		return exitFailure
	}

	result, skipped, err := recount(election, ballots, stderr, *quiet)
	if err != nil {
		printError(stderr, err)
		if errors.Is(err, domainerrors.ErrMalformedBallot) {
			return exitMalformed
		}
		return exitFailure
	}
	printReport(stdout, election, result, skipped)
	return exitOK
}

// recount checks every ballot against the candidate order before tallying,
// so a bad export points at the offending ballot. Only a voter's first ballot
// counts; later ones are skipped as the service would reject them.
func recount(election entities.Election, ballots []entities.Ballot, progress io.Writer, quiet bool) (entities.TallyResult, int, error) {
	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.NewOptions(len(ballots),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("tallying"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	counted := make([]entities.Ballot, 0, len(ballots))
	skipped := 0
	for i, ballot := range ballots {
		if err := tally.ValidateBallot(election.Candidates, ballot); err != nil {
			return entities.TallyResult{}, 0, fmt.Errorf("ballot %d from %s: %w", i, ballot.Voter, err)
		}
		if tally.HasVoted(counted, election.ElectionID, ballot.Voter) {
			skipped++
		} else {
			counted = append(counted, ballot)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	result, err := tally.Tally(election, counted)
	return result, skipped, err
}

func printError(w io.Writer, err error) {
	color.Fprintf(w, "<error>ERROR</>\t%s\n", err.Error())
}
