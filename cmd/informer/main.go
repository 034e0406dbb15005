// Copyright 2026 VeryGoodOps Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command informer is the rule-reconciliation sidecar (spec §2, component
// 8): it runs the tracker (ruler -> Kubernetes) and updater (Kubernetes ->
// ruler) driver loops side by side.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/internal/buildinfo"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/distributor"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/metrics"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/reconcile"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rulestore/k8s"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rulestore/ruler"
)

const namespaceEnvVar = "OPEN_METRICS_INFORMER_NAMESPACE"

func main() {
	app := kingpin.New(filepathBase(os.Args[0]), "Multi-tenant rule-group reconciler sidecar.")

	port := app.Flag("port", "Port to listen on.").Default("20093").Uint16()
	iface := app.Flag("interface", "Interface to bind to.").Default("127.0.0.1").String()
	rulerUpstreamURL := app.Flag("ruler-upstream-url", "Base URL of the ruler HTTP API.").Required().String()
	distributorUpstreamURL := app.Flag("distributor-upstream-url", "Base URL of the distributor tenant-discovery API.").Required().String()
	trackerPollIntervalSeconds := app.Flag("tracker-poll-interval-seconds", "Tracker tick interval; 0 disables the tracker.").Default("0").Uint32()
	updaterPollIntervalSeconds := app.Flag("updater-poll-interval-seconds", "Updater tick interval; 0 disables the updater.").Default("0").Uint32()
	enableUpdaterRemoveRules := app.Flag("enable-updater-remove-rules", "Allow the updater to delete ruler-only rule groups.").Default("false").Bool()
	apiserverURL := app.Flag("apiserver", "URL to the Kubernetes API server; empty uses in-cluster or kubeconfig discovery.").Default("").String()
	kubeconfig := app.Flag("kubeconfig", "Path to a kubeconfig file; empty uses in-cluster discovery.").Default("").String()
	logLevel := app.Flag("log-level", "Log level: debug, info, warn, or error.").Default("info").String()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := setupLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger failed: %s\n", err)
		os.Exit(2)
	}

	bindAddr := net.JoinHostPort(*iface, strconv.Itoa(int(*port)))
	if _, _, err := net.SplitHostPort(bindAddr); err != nil {
		level.Error(logger).Log("msg", "bind address parse failed", "addr", bindAddr, "err", err)
		os.Exit(2)
	}

	namespace := "default"
	if v, ok := os.LookupEnv(namespaceEnvVar); ok && v != "" {
		namespace = v
	}

	cfg, err := clientcmd.BuildConfigFromFlags(*apiserverURL, *kubeconfig)
	if err != nil {
		level.Error(logger).Log("msg", "building kubeconfig failed", "err", err)
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}
	k8sClient, err := k8s.NewClient(cfg, namespace)
	if err != nil {
		level.Error(logger).Log("msg", "building kubernetes rule-store client failed", "err", err)
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		buildinfo.Collector("informer"),
	)
	informerMetrics := metrics.NewInformerMetrics(reg)

	rulerClient := ruler.NewClient(*rulerUpstreamURL, nil)
	discoverer := distributor.NewDiscoverer(*distributorUpstreamURL, nil)

	var g run.Group
	{
		term := make(chan os.Signal, 1)
		cancel := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			select {
			case <-term:
				level.Info(logger).Log("msg", "received termination signal, exiting gracefully")
			case <-cancel:
			}
			return nil
		}, func(err error) {
			close(cancel)
		})
	}
	{
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		server := &http.Server{Addr: bindAddr, Handler: mux}
		g.Add(func() error {
			level.Info(logger).Log("msg", "listening", "addr", bindAddr)
			return server.ListenAndServe()
		}, func(err error) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		})
	}
	{
		tracker := &reconcile.Tracker{
			K8s:        k8sClient,
			Ruler:      rulerClient,
			Discoverer: discoverer,
			Namespace:  namespace,
			RulerNS:    namespace,
			Interval:   time.Duration(*trackerPollIntervalSeconds) * time.Second,
			Logger:     log.With(logger, "component", "tracker"),
			Metrics:    informerMetrics,
		}
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return tracker.Run(ctx)
		}, func(err error) {
			cancel()
		})
	}
	{
		updater := &reconcile.Updater{
			K8s:               k8sClient,
			Ruler:             rulerClient,
			Namespace:         namespace,
			RulerNS:           namespace,
			Interval:          time.Duration(*updaterPollIntervalSeconds) * time.Second,
			EnableRemoveRules: *enableUpdaterRemoveRules,
			Logger:            log.With(logger, "component", "updater"),
			Metrics:           informerMetrics,
		}
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return updater.Run(ctx)
		}, func(err error) {
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		level.Error(logger).Log("msg", "exit with error", "err", err)
		os.Exit(1)
	}
}

func filepathBase(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func setupLogger(lvl string) (log.Logger, error) {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	switch lvl {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		return nil, errors.Errorf("log level %q unknown, must be one of (debug, info, warn, error)", lvl)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, nil
}
