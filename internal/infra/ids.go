package infra

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// ReceiptNumbers issues sortable shift receipt numbers ("TURNO-<snowflake>").
type ReceiptNumbers struct {
	node *snowflake.Node
}

func NewReceiptNumbers(nodeID int64) (*ReceiptNumbers, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("ids: snowflake node %d: %w", nodeID, err)
	}
	return &ReceiptNumbers{node: node}, nil
}

func (r *ReceiptNumbers) ReceiptNumber() string {
	return "TURNO-" + r.node.Generate().String()
}
