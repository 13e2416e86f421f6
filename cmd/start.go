/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bridge/domain/config"
	"bridge/interface/exporter"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var quit = make(chan bool)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the bridge service",
	Long:  `Starts the bridge stream and background tasks. To stop it, run 'stop' command.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("start called.")

		exporter.Init()
		defaultDependencyInject()

		if err := registryInteractor.Reload(); err != nil {
			log.Fatalf("Unable to load connected apps - %v\n", err.Error())
		}

		bridgeInteractor.Start()
		defer bridgeInteractor.Stop()

		poolsTicker := schedule(refreshPools, config.GetPoolsInterval(), quit)
		defer poolsTicker.Stop()

		go serveMetrics()

		signal.Ignore()
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		s := <-stop
		log.Printf("Got signal '%v', stopping", s)
	},
}

func schedule(task func(), interval time.Duration, done chan bool) *time.Ticker {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {

			case <-ticker.C:
				ticker.Stop()
				task()
				ticker.Reset(interval)

			case <-done:
				return
			}
		}
	}()
	return ticker
}

func refreshPools() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	poolsInteractor.Refresh(ctx)
}

func serveMetrics() {
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(config.GetMetricsAddress(), nil); err != nil {
		log.Printf("🔴 metrics endpoint - %v\n", err.Error())
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}
