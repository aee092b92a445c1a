package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/core/config"
)

// Lineage explorer for the traceability graph. Pass artifact keys as
// arguments for one-shot queries, or run without arguments for an
// interactive prompt.
//
//	anvil-trace checklist-123
//	anvil-trace -direction outbound -depth 2 quote-55 session-9
func main() {
	direction := flag.String("direction", "any", "traversal direction: outbound, inbound or any")
	depth := flag.Int("depth", 5, "maximum traversal depth (1-10)")
	relations := flag.String("relations", "", "comma-separated relation filter, e.g. derived_from,published_as")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if !cfg.Graph.Enabled() {
		fmt.Fprintln(os.Stderr, "ARANGO_URL, ARANGO_USERNAME and ARANGO_DATABASE are required")
		os.Exit(1)
	}

	opts, err := traversalOptions(*direction, *depth, *relations)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client, err := graph.Connect(ctx, graph.Config{
		URL:      cfg.Graph.URL,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to arangodb: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Trace graph: connected (%s)\n", cfg.Graph.URL)

	if args := flag.Args(); len(args) > 0 {
		for _, key := range args {
			if err := runTrace(ctx, client, key, opts); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	fmt.Fprintln(os.Stderr, "Enter an artifact key like checklist-123 (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		key := strings.TrimSpace(scanner.Text())
		if key == "" {
			continue
		}
		if key == "quit" || key == "exit" || key == "q" {
			break
		}

		if err := runTrace(ctx, client, key, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func traversalOptions(direction string, depth int, relations string) (graph.TraversalOptions, error) {
	opts := graph.TraversalOptions{MaxDepth: depth}

	switch d := graph.Direction(direction); d {
	case graph.DirectionOutbound, graph.DirectionInbound, graph.DirectionAny:
		opts.Direction = d
	default:
		return opts, fmt.Errorf("unknown direction %q", direction)
	}

	if depth < 1 || depth > 10 {
		return opts, fmt.Errorf("depth must be between 1 and 10")
	}

	for _, rel := range strings.Split(relations, ",") {
		if rel = strings.TrimSpace(rel); rel != "" {
			opts.Relations = append(opts.Relations, rel)
		}
	}

	return opts, nil
}

func runTrace(ctx context.Context, client graph.Client, key string, opts graph.TraversalOptions) error {
	kind, refID, err := graph.ParseArtifactKey(key)
	if err != nil {
		return err
	}

	nodes, edges, err := client.TraceFrom(ctx, kind, refID, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d nodes, %d edges\n", key, len(nodes), len(edges))

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, n := range nodes {
		fmt.Fprintf(w, "  %s\t%s\tproject %d\n", n.Key, n.Label, n.ProjectID)
	}
	w.Flush()

	if len(edges) > 0 {
		fmt.Println()
		for _, e := range edges {
			fmt.Printf("  %s -[%s]-> %s\n", e.From, e.Relation, e.To)
		}
	}
	fmt.Println()

	return nil
}
