package dto

import (
	"planforge.app/anvil/common/graph"
)

type TraceNode struct {
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	RefID     int64  `json:"ref_id,string"`
	Label     string `json:"label"`
	ProjectID int64  `json:"project_id,string"`
}

type TraceEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

type TraceResponse struct {
	Root  string      `json:"root"`
	Nodes []TraceNode `json:"nodes"`
	Edges []TraceEdge `json:"edges"`
}

func ToTraceResponse(root string, nodes []graph.TraceNode, edges []graph.TraceEdge) *TraceResponse {
	resp := &TraceResponse{
		Root:  root,
		Nodes: make([]TraceNode, 0, len(nodes)),
		Edges: make([]TraceEdge, 0, len(edges)),
	}
	for _, n := range nodes {
		resp.Nodes = append(resp.Nodes, TraceNode{
			Key:       n.Key,
			Kind:      n.Kind,
			RefID:     n.RefID,
			Label:     n.Label,
			ProjectID: n.ProjectID,
		})
	}
	for _, e := range edges {
		resp.Edges = append(resp.Edges, TraceEdge{
			From:     e.From,
			To:       e.To,
			Relation: e.Relation,
		})
	}
	return resp
}
