package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/blockberries/relayrefund/chainstate"
	"github.com/blockberries/relayrefund/config"
	"github.com/blockberries/relayrefund/extension"
	"github.com/blockberries/relayrefund/fee"
	refundgrpc "github.com/blockberries/relayrefund/grpc"
	"github.com/blockberries/relayrefund/obsolete"
	"github.com/blockberries/relayrefund/server"
	"github.com/blockberries/relayrefund/store"
	"github.com/blockberries/relayrefund/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the refund pipeline and serve it over gRPC",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	logger, err := newLogger(lvl)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	n, err := openNode(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer n.Close()
	srv, ledger := n.srv, n.ledger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.ListenAddress != "" {
		status := &http.Server{
			Addr:              cfg.Metrics.ListenAddress,
			Handler:           statusRouter(srv, ledger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status server listening", zap.String("addr", status.Addr))
			if err := status.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server crashed", zap.Error(err))
			}
		}()
		defer status.Close()
	}

	lis, err := net.Listen("tcp", cfg.RPC.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.RPC.ListenAddress, err)
	}
	gs := refundgrpc.NewGRPCServer(srv, logger)
	grpcServer := grpc.NewServer()
	gs.Register(grpcServer)

	errC := make(chan error, 1)
	go func() {
		logger.Info("rpc server listening",
			zap.Stringer("addr", lis.Addr()),
			zap.Uint32("para_id", cfg.Bridge.ParachainID),
			zap.Stringer("lane", cfg.LaneID()))
		errC <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		gs.Stop(grpcServer)
		return nil
	case err := <-errC:
		return err
	}
}

// node is the pipeline the daemon serves.
type node struct {
	srv    *server.Server
	ledger *store.LevelDBLedger
	state  *chainstate.State
}

// openNode opens the database under cfg.DataDir and assembles the
// pipeline. Trackers are restored from the database; [genesis] only
// seeds a database that never held any.
func openNode(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*node, error) {
	ledger, err := store.OpenLevelDBLedger(cfg.LedgerPath())
	if err != nil {
		return nil, err
	}
	state, restored, err := chainstate.Open(ledger.Trackers())
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	if restored {
		logger.Info("restored bridge trackers", zap.String("path", cfg.LedgerPath()))
	} else {
		seedGenesis(state, cfg)
		if err := state.Persist(); err != nil {
			_ = ledger.Close()
			return nil, err
		}
		logger.Info("seeded bridge trackers from genesis",
			zap.Uint32("relay_header", cfg.Genesis.BestRelayHeader),
			zap.Uint32("para_head_at", cfg.Genesis.ParaHeadAtRelay),
			zap.Uint64("nonce", cfg.Genesis.BestDeliveredNonce))
	}

	ext, err := extension.New(extension.Config{
		ParachainID: types.ParaID(cfg.Bridge.ParachainID),
		LaneID:      cfg.LaneID(),
		RelayChain:  state,
		Parachains:  state,
		Messages:    state,
		Rewards:     ledger,
		Fee:         fee.NewCalculator(cfg.FeeParams()),
		Obsolete:    obsolete.New(state, state, state),
		Logger:      logger,
		Metrics:     extension.NewMetrics(reg),
	})
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	dispatcher := chainstate.NewDispatcher(state, chainstate.DefaultWeights())
	return &node{
		srv:    server.New(ext, dispatcher, ledger, logger),
		ledger: ledger,
		state:  state,
	}, nil
}

// Close closes the database.
func (n *node) Close() error {
	return n.ledger.Close()
}

func seedGenesis(state *chainstate.State, cfg *config.Config) {
	g := cfg.Genesis
	if g.BestRelayHeader > 0 {
		state.SetBestFinalized(types.Header{Number: types.BlockNumber(g.BestRelayHeader)})
	}
	if g.ParaHeadAtRelay > 0 {
		state.SetParaInfo(types.ParaID(cfg.Bridge.ParachainID), types.ParaInfo{
			BestHeadHash: types.BestParaHeadHash{AtRelayBlockNumber: types.BlockNumber(g.ParaHeadAtRelay)},
		})
	}
	if g.BestDeliveredNonce > 0 {
		state.SetInboundLane(cfg.LaneID(), types.InboundLaneData{LastConfirmedNonce: types.MessageNonce(g.BestDeliveredNonce)})
	}
}

type rewardJSON struct {
	Relayer string `json:"relayer"`
	Lane    string `json:"lane"`
	Reward  uint64 `json:"reward"`
}

func statusRouter(srv *server.Server, ledger *store.LevelDBLedger) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())

	router.HandleFunc("/bridge", func(w http.ResponseWriter, r *http.Request) {
		snap, err := srv.BridgeState(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, snap)
	}).Methods(http.MethodGet)

	router.HandleFunc("/rewards", func(w http.ResponseWriter, r *http.Request) {
		entries, err := ledger.Entries()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]rewardJSON, 0, len(entries))
		for _, e := range entries {
			out = append(out, rewardJSON{Relayer: e.Relayer.String(), Lane: e.Lane.String(), Reward: uint64(e.Reward)})
		}
		writeJSON(w, out)
	}).Methods(http.MethodGet)

	router.HandleFunc("/rewards/{relayer}/{lane}", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		relayer, err := types.ParseAccountID(vars["relayer"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lane, err := types.ParseLaneID(vars["lane"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		reward, ok, err := srv.RelayerReward(r.Context(), relayer, lane)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, rewardJSON{Relayer: relayer.String(), Lane: lane.String(), Reward: uint64(reward)})
	}).Methods(http.MethodGet)

	return router
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
