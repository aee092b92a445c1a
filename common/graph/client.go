package graph

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"golang.org/x/net/http2"
)

const (
	artifactCollection = "artifacts"
	lineageCollection  = "lineage"
	graphName          = "traceability"
)

// Client maintains the requirement-traceability graph: which checklist came
// from which documents, which quote it was compared against, and where the
// merged result was published.
type Client interface {
	// Setup operations
	EnsureDatabase(ctx context.Context) error
	EnsureCollections(ctx context.Context) error
	EnsureGraph(ctx context.Context) error

	// Write operations
	IngestArtifacts(ctx context.Context, artifacts []Artifact) error
	IngestLinks(ctx context.Context, links []Link) error

	// Read operations
	TraceFrom(ctx context.Context, kind string, refID int64, opts TraversalOptions) ([]TraceNode, []TraceEdge, error)

	// Utility
	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	// connection.DefaultHTTP2ConfigurationWrapper(endpoint, true) only exists
	// in go-driver >= v2.1.2, which needs go >= 1.22; this is the exact
	// configuration that wrapper produces.
	conn := connection.NewHttp2Connection(connection.Http2Configuration{
		Endpoint: endpoint,
		Transport: &http2.Transport{
			IdleConnTimeout: 90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: true,
			},
			AllowHTTP: true,
			DialTLSContext: func(_ context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return net.DialTimeout(network, addr, 30*time.Second)
			},
		},
	})

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	arangoClient := arangodb.NewClient(conn)

	c := &client{
		conn:         conn,
		arangoClient: arangoClient,
		cfg:          cfg,
	}

	return c, nil
}

// Connect builds a client and ensures the database, collections, and named
// graph all exist. Every step is idempotent, so any binary can bootstrap.
func Connect(ctx context.Context, cfg Config) (Client, error) {
	client, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := client.EnsureDatabase(ctx); err != nil {
		return nil, err
	}
	if err := client.EnsureCollections(ctx); err != nil {
		return nil, err
	}
	if err := client.EnsureGraph(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *client) Close() error {
	return nil
}

func (c *client) EnsureDatabase(ctx context.Context) error {
	start := time.Now()

	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		_, err = c.arangoClient.CreateDatabase(ctx, c.cfg.Database, nil)
		if err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", c.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	return nil
}

func (c *client) EnsureCollections(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	if err := c.ensureCollection(ctx, artifactCollection, false); err != nil {
		return err
	}
	return c.ensureCollection(ctx, lineageCollection, true)
}

func (c *client) ensureCollection(ctx context.Context, name string, isEdge bool) error {
	exists, err := c.db.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", name, err)
	}

	if !exists {
		// CreateCollectionV2/CreateCollectionPropertiesV2 only exist in
		// go-driver >= v2.1.3 (go >= 1.22); the legacy call sends the same
		// {"name","type"} payload for a Type-only properties struct.
		props := &arangodb.CreateCollectionProperties{}
		if isEdge {
			props.Type = arangodb.CollectionTypeEdge
		} else {
			props.Type = arangodb.CollectionTypeDocument
		}

		_, err = c.db.CreateCollection(ctx, name, props)
		if err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		slog.InfoContext(ctx, "arangodb collection created",
			"collection", name,
			"is_edge", isEdge)
	}

	return nil
}

func (c *client) EnsureGraph(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	exists, err := c.db.GraphExists(ctx, graphName)
	if err != nil {
		return fmt.Errorf("check graph exists: %w", err)
	}

	if exists {
		return nil
	}

	graphDef := &arangodb.GraphDefinition{
		Name: graphName,
		EdgeDefinitions: []arangodb.EdgeDefinition{
			{Collection: lineageCollection, From: []string{artifactCollection}, To: []string{artifactCollection}},
		},
	}

	_, err = c.db.CreateGraph(ctx, graphName, graphDef, nil)
	if err != nil {
		return fmt.Errorf("create graph: %w", err)
	}

	slog.InfoContext(ctx, "arangodb graph created", "graph", graphName)
	return nil
}

// IngestArtifacts inserts artifact vertices. Duplicates (same _key) are
// silently ignored, so re-ingesting after a regeneration is safe.
func (c *client) IngestArtifacts(ctx context.Context, artifacts []Artifact) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if len(artifacts) == 0 {
		return nil
	}

	start := time.Now()
	col, err := c.db.GetCollection(ctx, artifactCollection, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", artifactCollection, err)
	}

	docs := make([]map[string]any, len(artifacts))
	for i, a := range artifacts {
		docs[i] = map[string]any{
			"_key":       ArtifactKey(a.Kind, a.RefID),
			"kind":       a.Kind,
			"ref_id":     a.RefID,
			"label":      a.Label,
			"project_id": a.ProjectID,
		}
	}

	reader, err := col.CreateDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("create documents: %w", err)
	}

	// Consume all responses (ignoring errors for duplicate keys)
	for {
		_, readErr := reader.Read()
		if readErr != nil {
			break
		}
	}

	slog.DebugContext(ctx, "arangodb artifacts ingested",
		"count", len(artifacts),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// IngestLinks inserts lineage edges. Duplicates (same from/to/relation) are
// silently ignored.
func (c *client) IngestLinks(ctx context.Context, links []Link) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if len(links) == 0 {
		return nil
	}

	start := time.Now()
	col, err := c.db.GetCollection(ctx, lineageCollection, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", lineageCollection, err)
	}

	docs := make([]map[string]any, len(links))
	for i, l := range links {
		fromKey := ArtifactKey(l.FromKind, l.FromID)
		toKey := ArtifactKey(l.ToKind, l.ToID)

		docs[i] = map[string]any{
			"_key":     makeEdgeKey(fromKey, toKey, l.Relation),
			"_from":    fmt.Sprintf("%s/%s", artifactCollection, fromKey),
			"_to":      fmt.Sprintf("%s/%s", artifactCollection, toKey),
			"relation": l.Relation,
		}
		if l.Note != "" {
			docs[i]["note"] = l.Note
		}
	}

	reader, err := col.CreateDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("create edge documents: %w", err)
	}

	// Consume all responses (ignoring errors for duplicate keys)
	for {
		_, readErr := reader.Read()
		if readErr != nil {
			break
		}
	}

	slog.DebugContext(ctx, "arangodb links ingested",
		"count", len(links),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (c *client) TraceFrom(ctx context.Context, kind string, refID int64, opts TraversalOptions) ([]TraceNode, []TraceEdge, error) {
	if c.db == nil {
		return nil, nil, fmt.Errorf("database not initialized")
	}

	start := time.Now()

	direction := "OUTBOUND"
	switch opts.Direction {
	case DirectionInbound:
		direction = "INBOUND"
	case DirectionAny:
		direction = "ANY"
	}

	depth := opts.MaxDepth
	if depth <= 0 {
		depth = 3
	}

	relationFilter := ""
	bindVars := map[string]any{
		"start": fmt.Sprintf("%s/%s", artifactCollection, ArtifactKey(kind, refID)),
		"depth": depth,
	}
	if len(opts.Relations) > 0 {
		relationFilter = "FILTER e.relation IN @relations"
		bindVars["relations"] = opts.Relations
	}

	query := fmt.Sprintf(`
		FOR v, e IN 1..@depth %s @start GRAPH "%s"
			%s
			RETURN {
				vertex: { key: v._key, kind: v.kind, ref_id: v.ref_id, label: v.label, project_id: v.project_id },
				edge: { from: e._from, to: e._to, relation: e.relation }
			}
	`, direction, graphName, relationFilter)

	cursor, err := c.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("execute traversal: %w", err)
	}
	defer cursor.Close()

	nodeMap := make(map[string]TraceNode)
	var edges []TraceEdge

	for cursor.HasMore() {
		var doc struct {
			Vertex struct {
				Key       string `json:"key"`
				Kind      string `json:"kind"`
				RefID     int64  `json:"ref_id"`
				Label     string `json:"label"`
				ProjectID int64  `json:"project_id"`
			} `json:"vertex"`
			Edge struct {
				From     string `json:"from"`
				To       string `json:"to"`
				Relation string `json:"relation"`
			} `json:"edge"`
		}
		_, err := cursor.ReadDocument(ctx, &doc)
		if err != nil {
			return nil, nil, fmt.Errorf("read document: %w", err)
		}

		if doc.Vertex.Key != "" {
			nodeMap[doc.Vertex.Key] = TraceNode{
				Key:       doc.Vertex.Key,
				Kind:      doc.Vertex.Kind,
				RefID:     doc.Vertex.RefID,
				Label:     doc.Vertex.Label,
				ProjectID: doc.Vertex.ProjectID,
			}
		}

		if doc.Edge.From != "" {
			edges = append(edges, TraceEdge{
				From:     doc.Edge.From,
				To:       doc.Edge.To,
				Relation: doc.Edge.Relation,
			})
		}
	}

	nodes := make([]TraceNode, 0, len(nodeMap))
	for _, node := range nodeMap {
		nodes = append(nodes, node)
	}

	slog.DebugContext(ctx, "arangodb trace completed",
		"kind", kind,
		"ref_id", refID,
		"depth", depth,
		"nodes", len(nodes),
		"edges", len(edges),
		"duration_ms", time.Since(start).Milliseconds())

	return nodes, edges, nil
}

// ArtifactKey builds the stable vertex key for an artifact.
func ArtifactKey(kind string, refID int64) string {
	return fmt.Sprintf("%s-%d", kind, refID)
}

// ParseArtifactKey splits a vertex key back into kind and ref ID. It splits
// on the last hyphen; kind names use underscores, so the split is
// unambiguous.
func ParseArtifactKey(key string) (string, int64, error) {
	i := strings.LastIndex(key, "-")
	if i <= 0 || i == len(key)-1 {
		return "", 0, fmt.Errorf("artifact key %q is not kind-id", key)
	}

	kind := key[:i]
	switch kind {
	case KindDocument, KindChecklist, KindQuote, KindSession, KindActionItem, KindPublication:
	default:
		return "", 0, fmt.Errorf("unknown artifact kind %q", kind)
	}

	refID, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil || refID <= 0 {
		return "", 0, fmt.Errorf("artifact key %q is not kind-id", key)
	}

	return kind, refID, nil
}

func makeEdgeKey(from, to, relation string) string {
	combined := from + "->" + to + "#" + relation
	hash := md5.Sum([]byte(combined))
	return hex.EncodeToString(hash[:])[:16]
}
