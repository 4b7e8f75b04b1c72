package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)

	root := &cobra.Command{
		Use:   "placement-planner",
		Short: "Carbon-aware placement planning for multi-region workloads",
		Long: `placement-planner scores every catalog region on carbon intensity,
latency and cost, and produces one deployment plan per optimization strategy.

Plans can be generated from the command line or served over HTTP together with
deployment to a Kubernetes cluster and deployment analytics.`,
		SilenceUsage: true,
	}

	fs := pflag.NewFlagSet("", pflag.ExitOnError)
	fs.AddGoFlagSet(flag.CommandLine)
	root.PersistentFlags().AddFlagSet(fs)

	root.AddCommand(newServeCommand(), newPlanCommand())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		klog.InfoS("Received shutdown signal")
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}
