package graph

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
	DirectionAny      Direction = "any"
)

// Artifact kinds tracked in the traceability graph.
const (
	KindDocument    = "document"
	KindChecklist   = "checklist"
	KindQuote       = "quote"
	KindSession     = "session"
	KindActionItem  = "action_item"
	KindPublication = "publication"
)

// Lineage relations between artifacts.
const (
	RelationDerivedFrom     = "derived_from"
	RelationComparedAgainst = "compared_against"
	RelationResolvedBy      = "resolved_by"
	RelationClarifiedBy     = "clarified_by"
	RelationPublishedAs     = "published_as"
)

// Artifact is one vertex in the traceability graph. Key is derived from
// Kind and RefID and stays stable across re-ingestion.
type Artifact struct {
	Kind      string
	RefID     int64
	Label     string
	ProjectID int64
}

// Link is one lineage edge between two artifacts.
type Link struct {
	FromKind string
	FromID   int64
	ToKind   string
	ToID     int64
	Relation string
	Note     string
}

type TraceNode struct {
	Key       string
	Kind      string
	RefID     int64
	Label     string
	ProjectID int64
}

type TraceEdge struct {
	From     string
	To       string
	Relation string
}

type TraversalOptions struct {
	Relations []string
	Direction Direction
	MaxDepth  int
}
