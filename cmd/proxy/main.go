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

// Command proxy is the multi-tenant remote-write ingest proxy (spec §2,
// component 1): it decodes inbound WriteRequests, splits them by tenant,
// and fans them out to the ingester.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
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
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/metrics"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/proxy"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/rulestore/k8s"
	"github.com/verygood-ops/open-metrics-multi-tenancy-kit/pkg/tenant"
)

const namespaceEnvVar = "OPEN_METRICS_PROXY_NAMESPACE"

func main() {
	app := kingpin.New(filepathBase(os.Args[0]), "Multi-tenant Prometheus remote-write ingest proxy.")

	port := app.Flag("port", "Port to listen on.").Default("19093").Uint16()
	iface := app.Flag("interface", "Interface to bind to.").Default("0.0.0.0").String()
	contentLengthLimit := app.Flag("content-length-limit", "Maximum decompressed request body size, in bytes.").Default("104857600").Int64()
	tenantLabelList := app.Flag("tenant-label-list", "Comma-separated label names used to resolve the destination tenant.").Default("tenant_id").String()
	defaultTenantList := app.Flag("default-tenant-list", "Comma-separated tenant IDs seeding the registry's initial set.").Default("0").String()
	ingesterUpstreamURL := app.Flag("ingester-upstream-url", "Remote-write URL of the ingester to forward to.").Required().String()
	maxParallelRequestPerLoad := app.Flag("max-parallel-request-per-load", "Maximum concurrent upstream POSTs per inbound request.").Default("64").Int64()
	allowListedTenants := app.Flag("allow-listed-tenants", "Comma-separated tenant allow-list; empty disables allow-listing.").Default("").String()
	kubernetesPollIntervalSeconds := app.Flag("kubernetes-poll-interval-seconds", "Interval to refresh the tenant registry from Kubernetes bundles; 0 disables.").Default("0").Uint32()
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

	registry := tenant.NewRegistry()
	registry.SetInitial(splitCSV(*defaultTenantList))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		buildinfo.Collector("proxy"),
	)
	proxyMetrics := metrics.NewProxyMetrics(reg)

	handler := &proxy.Handler{
		Registry:           registry,
		ContentLengthLimit: *contentLengthLimit,
		SplitConfig: proxy.SplitConfig{
			TenantLabels:     splitCSV(*tenantLabelList),
			AllowListEnabled: *allowListedTenants != "",
			AllowList:        splitCSV(*allowListedTenants),
		},
		DispatchConfig: proxy.DispatchConfig{
			UpstreamURL:   *ingesterUpstreamURL,
			ParallelLimit: *maxParallelRequestPerLoad,
		},
		Metrics: proxyMetrics,
		Logger:  logger,
	}

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
		mux.Handle("/", handler)
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
	if *kubernetesPollIntervalSeconds > 0 {
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
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return runTenantDiscoveryWorker(ctx, k8sClient, registry, time.Duration(*kubernetesPollIntervalSeconds)*time.Second, logger)
		}, func(err error) {
			registry.Stop()
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		level.Error(logger).Log("msg", "exit with error", "err", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func filepathBase(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
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
