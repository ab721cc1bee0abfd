package electionservice_test

import "payparty/contexts/party/election-service/application/commands"

func markPaid(electionID string, actorID string, txHash string) commands.MarkPaidCommand {
	return commands.MarkPaidCommand{
		ElectionID: electionID,
		ActorID:    actorID,
		TxHash:     txHash,
	}
}
