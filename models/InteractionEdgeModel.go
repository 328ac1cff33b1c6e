package models

import "fmt"

// InteractionEdge is a directed relation between two users. The table key is
// (sourceId, kind#targetId), so a repeated action of the same kind replaces
// the prior edge instead of duplicating it. Edges are never deleted.
type InteractionEdge struct {
	SourceID  string `dynamodbav:"sourceId" json:"sourceId"` // Partition Key
	EdgeKey   string `dynamodbav:"edgeKey" json:"edgeKey"`   // Sort Key: "<kind>#<targetId>"
	Kind      string `dynamodbav:"kind" json:"kind"`
	TargetID  string `dynamodbav:"targetId" json:"targetId"` // Indexed via GSI for reverse lookups
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
	SuperLike bool   `dynamodbav:"superLike,omitempty" json:"superLike,omitempty"` // meaningful only for LIKES
}

// EdgeSortKey builds the sort key enforcing one edge per (kind, source, target).
func EdgeSortKey(kind, targetID string) string {
	return fmt.Sprintf("%s#%s", kind, targetID)
}

// InteractionEdgesTable is the DynamoDB table name for interaction edges
const InteractionEdgesTable = "InteractionEdges"

// TargetIndex is the GSI used to look up edges pointing at a user
const TargetIndex = "targetId-index"
