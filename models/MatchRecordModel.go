package models

import "strings"

// MatchRecord is the derived record for a mutual like. It is keyed by the
// unordered pair so a conditional put creates it exactly once even when both
// sides evaluate the mutual condition at the same instant.
type MatchRecord struct {
	PairID    string `dynamodbav:"pairId" json:"pairId"` // Partition Key: "<lowId>|<highId>"
	MatchID   string `dynamodbav:"matchId" json:"matchId"`
	UserA     string `dynamodbav:"userA" json:"userA"`
	UserB     string `dynamodbav:"userB" json:"userB"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// PairKey returns the canonical unordered pair key for two user IDs.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}

// MatchRecordsTable is the DynamoDB table name for match records
const MatchRecordsTable = "MatchRecords"
