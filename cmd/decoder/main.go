package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "decoder",
		Short:        "Token transfer decoder for block stream payloads",
		SilenceUsage: true,
	}

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a stream payload into ERC20, ERC721 and ERC1155 transfers",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input payload JSON file, - for stdin")
	decodeCmd.Flags().String("out", "", "optional JSONL file to append decoded transfers to")
	decodeCmd.Flags().Int("parallel-bundles", 1, "bundles decoded concurrently")
	decodeCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch blocks over JSON-RPC and decode their transfers",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("rpc", "", "Ethereum JSON-RPC URL")
	fetchCmd.Flags().Uint64("from", 0, "first block (inclusive)")
	fetchCmd.Flags().Uint64("to", 0, "last block (inclusive), 0 means same as --from")
	fetchCmd.Flags().String("out", "", "optional JSONL file to append decoded transfers to")
	fetchCmd.Flags().Int("parallel-bundles", 1, "bundles decoded concurrently")
	fetchCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(fetchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
