// YieldSyncx - agricultural sensor anchoring node and toolbox
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Omecx/YieldSyncx/anomaly"
	"github.com/Omecx/YieldSyncx/chain"
	log "github.com/Omecx/YieldSyncx/log"
	"github.com/Omecx/YieldSyncx/node"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "yieldsyncx",
		Short: "YieldSyncx sensor anchoring node",
		Long: `Records agricultural sensor readings, batches them into Merkle trees,
anchors the roots, and verifies individual readings against anchored roots.`,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	var (
		dataDir      string
		logLevel     string
		debugModules string
		operatorKey  string
		nodeName     string
	)
	rootCmd.PersistentFlags().StringVar(&dataDir, "datadir", "yieldsyncx-data", "Data directory for the local store (empty = in-memory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "Log level: trace|debug|info|warn|error|crit")
	rootCmd.PersistentFlags().StringVar(&debugModules, "debug", "", "Comma-separated modules to enable debug logs for (or 'all')")
	rootCmd.PersistentFlags().StringVar(&operatorKey, "operator-key", "", "Hex private key used to sign batch anchors")
	rootCmd.PersistentFlags().StringVar(&nodeName, "name", "yieldsyncx", "Node name")

	newNode := func() (*node.Node, error) {
		log.InitLogger(logLevel)
		log.EnableModules(debugModules)

		cfg := &types.CommandConfig{
			DataDir:      dataDir,
			LogLevel:     logLevel,
			DebugModules: debugModules,
			OperatorKey:  operatorKey,
			NodeName:     nodeName,
		}
		client := chain.NewLedger(nil)
		if operatorKey != "" {
			pub, err := chain.OperatorFromHex(operatorKey)
			if err != nil {
				return nil, fmt.Errorf("bad operator key: %w", err)
			}
			client = chain.NewLedger(pub)
		}
		return node.NewNode(cfg, client, defaultThresholds())
	}

	// Record command - submits one reading
	var (
		deviceID  string
		timestamp int64
		data      string
		dataType  string
		location  string
	)
	var recordCmd = &cobra.Command{
		Use:   "record",
		Short: "Submit a sensor reading",
		Run: func(cmd *cobra.Command, args []string) {
			n, err := newNode()
			if err != nil {
				fmt.Printf("Node startup failed: %v\n", err)
				os.Exit(1)
			}
			defer n.Close()

			index, err := n.SubmitReading(types.SensorReading{
				DeviceID:  deviceID,
				Timestamp: timestamp,
				Data:      data,
				DataType:  dataType,
				Location:  location,
			})
			if err != nil {
				fmt.Printf("Record failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Recorded %s/%s at index %d\n", deviceID, dataType, index)
		},
	}
	recordCmd.Flags().StringVar(&deviceID, "device", "", "Device identifier")
	recordCmd.Flags().Int64Var(&timestamp, "timestamp", 0, "Reading timestamp (milliseconds since Unix epoch)")
	recordCmd.Flags().StringVar(&data, "data", "", "Reading payload (plain value or JSON)")
	recordCmd.Flags().StringVar(&dataType, "type", "", "Reading data type, e.g. temperature")
	recordCmd.Flags().StringVar(&location, "location", "", "Reading location")

	// Anchor command - batches everything unanchored
	var description string
	var anchorCmd = &cobra.Command{
		Use:   "anchor",
		Short: "Anchor all unanchored records as one Merkle batch",
		Run: func(cmd *cobra.Command, args []string) {
			n, err := newNode()
			if err != nil {
				fmt.Printf("Node startup failed: %v\n", err)
				os.Exit(1)
			}
			defer n.Close()

			batch, proofs, err := n.AnchorPending(description)
			if err != nil {
				fmt.Printf("Anchor failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Anchored batch %d covering records [%d, %d]\n", batch.ID, batch.FromIndex, batch.ToIndex)
			fmt.Printf("  Merkle root: %s\n", batch.MerkleRoot.Hex())
			fmt.Printf("  Proofs generated: %d\n", len(proofs))
		},
	}
	anchorCmd.Flags().StringVar(&description, "description", "", "Batch description")

	// Verify command - checks one record against an anchored batch
	var (
		recordIndex uint64
		batchID     uint64
	)
	var verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify a record's inclusion in an anchored batch",
		Run: func(cmd *cobra.Command, args []string) {
			n, err := newNode()
			if err != nil {
				fmt.Printf("Node startup failed: %v\n", err)
				os.Exit(1)
			}
			defer n.Close()

			ok, err := n.VerifyRecord(recordIndex, batchID)
			if err != nil {
				fmt.Printf("Verify failed: %v\n", err)
				os.Exit(1)
			}
			if !ok {
				fmt.Printf("Record %d is NOT included in batch %d\n", recordIndex, batchID)
				os.Exit(1)
			}
			fmt.Printf("Record %d verified against batch %d\n", recordIndex, batchID)
		},
	}
	verifyCmd.Flags().Uint64Var(&recordIndex, "index", 0, "Record index to verify")
	verifyCmd.Flags().Uint64Var(&batchID, "batch", 0, "Batch identifier to verify against")

	// Aggregate command - per-group statistics over a stored window
	var (
		aggDevice string
		aggFrom   int64
		aggTo     int64
	)
	var aggregateCmd = &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a device's stored readings over a timestamp window",
		Run: func(cmd *cobra.Command, args []string) {
			n, err := newNode()
			if err != nil {
				fmt.Printf("Node startup failed: %v\n", err)
				os.Exit(1)
			}
			defer n.Close()

			aggs, err := n.AggregateRange(aggDevice, aggFrom, aggTo)
			if err != nil {
				fmt.Printf("Aggregate failed: %v\n", err)
				os.Exit(1)
			}
			out, err := json.MarshalIndent(aggs, "", "  ")
			if err != nil {
				fmt.Printf("Aggregate failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
		},
	}
	aggregateCmd.Flags().StringVar(&aggDevice, "device", "", "Device identifier")
	aggregateCmd.Flags().Int64Var(&aggFrom, "from", 0, "Window start (milliseconds, inclusive)")
	aggregateCmd.Flags().Int64Var(&aggTo, "to", 0, "Window end (milliseconds, inclusive)")

	// Serve command - websocket subscriptions and health
	var port int
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the node's HTTP surface",
		Run: func(cmd *cobra.Command, args []string) {
			n, err := newNode()
			if err != nil {
				fmt.Printf("Node startup failed: %v\n", err)
				os.Exit(1)
			}
			defer n.Close()

			addr := fmt.Sprintf(":%d", port)
			fmt.Printf("Serving on %s (websocket at /ws)\n", addr)
			if err := n.ListenAndServe(addr); err != nil {
				fmt.Printf("Server failed: %v\n", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().IntVar(&port, "port", 8465, "HTTP listen port")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("yieldsyncx %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(recordCmd, anchorCmd, verifyCmd, aggregateCmd, serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// defaultThresholds covers the common field-sensor types; anything else is
// recorded without anomaly detection.
func defaultThresholds() map[string]anomaly.Threshold {
	return map[string]anomaly.Threshold{
		"temperature": {Min: -20, Max: 60, HasMin: true, HasMax: true, MaxDeltaPerSecond: 5},
		"humidity":    {Min: 0, Max: 100, HasMin: true, HasMax: true},
		"ph":          {Min: 0, Max: 14, HasMin: true, HasMax: true},
		"soil":        {Min: 0, Max: 100, HasMin: true, HasMax: true},
	}
}
