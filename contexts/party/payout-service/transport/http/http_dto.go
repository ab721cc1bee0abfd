package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DistributionResponse struct {
	DistributionID  string   `json:"distribution_id"`
	ElectionID      string   `json:"election_id"`
	Account         string   `json:"account"`
	Candidates      []string `json:"candidates"`
	Amounts         []string `json:"amounts"`
	Total           string   `json:"total"`
	TokenAddress    string   `json:"token_address,omitempty"`
	TxHash          string   `json:"tx_hash"`
	BlockNumber     uint64   `json:"block_number"`
	Status          string   `json:"status"`
	ReceiptStatus   string   `json:"receipt_status"`
	ReceiptAttempts int      `json:"receipt_attempts"`
	CreatedAt       string   `json:"created_at"`
}

type ListDistributionsResponse struct {
	Items []DistributionResponse `json:"items"`
}
