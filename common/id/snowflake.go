package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Snowflake node per process kind. Binaries that mint IDs must not share
// a node, or concurrent processes could collide.
const (
	NodeServer int64 = 1
	NodeWorker int64 = 2
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init binds the process to a snowflake node. The first call wins; later
// calls are no-ops and return nil.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			err = fmt.Errorf("snowflake node %d: %w", nodeID, err)
		}
	})
	return err
}

// New mints a time-ordered int64, unique across nodes. Init must have
// been called first.
func New() int64 {
	return node.Generate().Int64()
}
