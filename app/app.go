// Package app wires the declarative configuration, the compiled schema, a
// storage backend, and the four library components (pipeline, reader,
// audit, scanner) plus the reconciliation engine into one struct shared by
// cmd/memgraphd and cmd/memgraphctl, so the two binaries never duplicate
// bootstrap logic. Grounded on eve.evalgo.org/cli.runServer's service
// dependency injection sequence (config → services → handlers).
package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/memgraph/memgraph/audit"
	"github.com/memgraph/memgraph/config"
	"github.com/memgraph/memgraph/graphstore"
	"github.com/memgraph/memgraph/graphstore/memstore"
	"github.com/memgraph/memgraph/graphstore/neo4jstore"
	"github.com/memgraph/memgraph/pipeline"
	"github.com/memgraph/memgraph/reader"
	"github.com/memgraph/memgraph/reconcile"
	"github.com/memgraph/memgraph/scanner"
	"github.com/memgraph/memgraph/schema"
	"github.com/pkg/errors"
)

// App holds every long-lived component the two command-line entry points
// need. All fields are safe for concurrent use once Build returns.
type App struct {
	Config    *config.Config
	Registry  *schema.Registry
	Store     graphstore.Store
	Pipeline  *pipeline.Pipeline
	Reader    *reader.Reader
	Audit     *audit.Log
	Scanner   *scanner.Scanner
	Reconcile *reconcile.Engine

	closeStore func(ctx context.Context) error
}

// Build loads configuration from cfgPath, compiles the schema it names,
// opens the storage backend named by storageConnection, and wires every
// library component around it.
func Build(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	reg, err := schema.Load(cfg.Schema)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStore(ctx, cfg.StorageConnection, reg)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(store, reg, nil)
	rd := reader.New(store)

	a := &App{
		Config:     cfg,
		Registry:   reg,
		Store:      store,
		Pipeline:   p,
		Reader:     rd,
		Audit:      audit.New(store),
		Scanner:    scanner.New(p, reg),
		Reconcile:  reconcile.New(p, rd, store),
		closeStore: closeStore,
	}
	return a, nil
}

// Close releases the storage backend's connection pool, if it has one.
func (a *App) Close(ctx context.Context) error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore(ctx)
}

// openStore interprets storageConnection: the literal value "memory"
// selects the in-process memstore used for development and tests; a
// "bolt://" or "neo4j://" URI, with optional userinfo, opens a
// neo4jstore and bootstraps its constraints from the compiled schema.
func openStore(ctx context.Context, storageConnection string, reg *schema.Registry) (graphstore.Store, func(ctx context.Context) error, error) {
	if storageConnection == "memory" {
		return memstore.New(), nil, nil
	}

	u, err := url.Parse(storageConnection)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "app: parsing storageConnection %q", storageConnection)
	}
	switch u.Scheme {
	case "bolt", "bolt+s", "bolt+ssc", "neo4j", "neo4j+s", "neo4j+ssc":
	default:
		return nil, nil, errors.Errorf("app: unsupported storageConnection scheme %q (want memory, bolt://, or neo4j://)", u.Scheme)
	}

	username, password := "", ""
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
	}
	u.User = nil

	store, err := neo4jstore.Open(ctx, u.String(), username, password)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Bootstrap(ctx, constraintStatements(reg)); err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// constraintStatements renders Neo4j CREATE CONSTRAINT / CREATE INDEX
// statements from the schema: one constraint making the entity node's id
// unique for each label that declares any uniqueKeys (the key names
// themselves are not used), and one index over State.entityId for each
// distinct label named by an advisory Constraint. Identifiers are validated the same way every storage query
// validates them before label/type interpolation is allowed; business
// properties live inside each State node's props map, so an advisory
// index targets State rather than the entity node itself.
func constraintStatements(reg *schema.Registry) []string {
	var out []string
	for _, n := range reg.Def().Nodes {
		if err := graphstore.ValidateIdentifier(n.Label); err != nil {
			continue
		}
		for range n.UniqueKeys {
			name := fmt.Sprintf("uniq_%s_id", strings.ToLower(n.Label))
			out = append(out, fmt.Sprintf(
				"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", name, n.Label,
			))
			break
		}
	}
	// Constraint entries name a property nested inside each State node's
	// props map rather than a physical node property, so they are recorded
	// as index hints over State.entityId grouped by label comment only;
	// proper per-property indexing needs either a schema migration to
	// promote hot properties onto the node itself or APOC, neither of
	// which this storage layer depends on yet.
	seen := map[string]bool{}
	for _, c := range reg.Def().Constraints {
		if err := graphstore.ValidateIdentifier(c.Label); err != nil || seen[c.Label] {
			continue
		}
		seen[c.Label] = true
		name := fmt.Sprintf("idx_state_entityid_%s", strings.ToLower(c.Label))
		out = append(out, fmt.Sprintf(
			"CREATE INDEX %s IF NOT EXISTS FOR (s:State) ON (s.entityId)", name,
		))
	}
	return out
}
