package main

import (
	"fmt"
	"net/http"

	"github.com/cuemby/triplestore/pkg/log"
	"github.com/cuemby/triplestore/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the store and expose a Prometheus /metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("metrics-addr")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		http.Handle("/metrics", metrics.Handler())
		log.Logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
		fmt.Printf("metrics endpoint: http://%s/metrics\n", addr)
		return http.ListenAndServe(addr, nil)
	},
}

func init() {
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the Prometheus metrics endpoint")
}
