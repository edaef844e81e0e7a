// Command armctl loads a GraphML ARM, runs the catalog/ADM/CBM pipeline
// over it, and prints query results — the library's one executable,
// structured like the teacher's Lambda cmd/* entry points: parse flags,
// run a handler, translate any error into a logged message and a
// non-zero exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabric-testbed/InformationModel-sub001/internal/config"
	"github.com/fabric-testbed/InformationModel-sub001/internal/logging"
	"github.com/fabric-testbed/InformationModel-sub001/internal/metrics"
	"github.com/fabric-testbed/InformationModel-sub001/internal/tracing"
	httpapi "github.com/fabric-testbed/InformationModel-sub001/interfaces/http"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/adm"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/catalog"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/cbm"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph/breaker"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graph/memgraph"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/graphml"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
)

func main() {
	armFile := flag.String("arm", "", "path to a GraphML ARM file")
	configFile := flag.String("config", "", "path to a TOML config file (optional)")
	site := flag.String("site", "", "filter nodes_matching to this Site")
	accumulate := flag.Bool("accumulate", false, "report every malformed pool instead of stopping at the first")
	listen := flag.String("listen", "", "if set, serve nodes_matching/intersite-links/path/metrics on this address instead of exiting")
	flag.Parse()

	if err := run(*armFile, *configFile, *site, *accumulate, *listen); err != nil {
		fmt.Fprintln(os.Stderr, "armctl:", err)
		os.Exit(1)
	}
}

func run(armFile, configFile, site string, accumulate bool, listen string) error {
	if armFile == "" {
		return fmt.Errorf("-arm is required")
	}

	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, err := logging.New(cfg.Logging.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Setup(ctx, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName)
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer shutdown(ctx)
	}
	ctx, span := tracing.Start(ctx, "armctl.run")
	defer span.End()

	mtr, reg := metrics.New()

	// A circuit breaker belongs in front of the adapter a real deployment
	// points at (a remote graph database); memgraph never fails, but
	// wrapping it here still exercises the one store every operation below
	// goes through, and makes swapping in a remote adapter a one-line change.
	store := breaker.New("arm-store", memgraph.New(), nil)
	armID := "arm-" + uuid.NewString()

	f, err := os.Open(armFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := graphml.Read(ctx, f, store, armID); err != nil {
		return err
	}

	walkStart := time.Now()
	cat, err := catalog.Walk(ctx, store, armID, accumulate)
	metrics.Observe(mtr.CatalogWalkDuration, walkStart)
	if err != nil {
		return err
	}
	logger.Info("cataloged ARM", zap.Strings("delegation_ids", cat.DelegationIDs()))

	generateStart := time.Now()
	adms, err := adm.Generate(ctx, store, armID, cat)
	metrics.Observe(mtr.ADMGenerateDuration, generateStart)
	if err != nil {
		return err
	}

	broker := cbm.New(store, "cbm-"+uuid.NewString())
	for id, a := range adms {
		mergeStart := time.Now()
		err := broker.MergeADM(ctx, a)
		metrics.Observe(mtr.CBMMergeDuration, mergeStart)
		if err != nil {
			if modelerrors.Of(err, modelerrors.ConflictingMerge) {
				mtr.CBMMergeConflicts.Inc()
			}
			return fmt.Errorf("merging ADM %q: %w", id, err)
		}
	}

	if mergedNodes, err := store.ListNodes(ctx, broker.GraphID()); err == nil {
		mtr.CBMNodeCount.Set(float64(len(mergedNodes)))
	}

	if listen != "" {
		srv := httpapi.NewServer(broker, logger, reg)
		logger.Info("serving CBM queries", zap.String("addr", listen))
		return http.ListenAndServe(listen, srv)
	}

	want := map[string]string{}
	if site != "" {
		want[graph.PropSite] = site
	}
	matches, err := broker.NodesMatching(ctx, graph.ClassNetworkNode, want, nil)
	if err != nil {
		return err
	}

	fmt.Printf("%d delegations, %d matching NetworkNodes\n", len(adms), len(matches))
	for _, m := range matches {
		fmt.Println(" -", m)
	}
	return nil
}
