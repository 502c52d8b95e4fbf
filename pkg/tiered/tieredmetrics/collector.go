// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package tieredmetrics exports the tiered storage counters to prometheus.
package tieredmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridlabs/tieredstorage/pkg/tiered"
)

// Namespace prefixes every exported metric.
const Namespace = "tiered"

// Source is what the collector reads. *tiered.Manager implements it.
type Source interface {
	Counters() map[string]tiered.Count
	ReadDisk() int64
	WriteDisk() int64
}

var _ Source = (*tiered.Manager)(nil)

// Collector is a prometheus.Collector reading a Source on every scrape.
type Collector struct {
	source Source

	total  *prometheus.Desc
	ram    *prometheus.Desc
	reads  *prometheus.Desc
	writes *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		total: prometheus.NewDesc(prometheus.BuildFQName(Namespace, "entries", "total"),
			"Number of entries of a type in any tier.", []string{"type"}, nil),
		ram: prometheus.NewDesc(prometheus.BuildFQName(Namespace, "entries", "ram"),
			"Number of entries of a type with a memory copy.", []string{"type"}, nil),
		reads: prometheus.NewDesc(prometheus.BuildFQName(Namespace, "disk", "reads_total"),
			"Number of user reads served from disk.", nil, nil),
		writes: prometheus.NewDesc(prometheus.BuildFQName(Namespace, "disk", "writes_total"),
			"Number of writes applied to disk.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.ram
	ch <- c.reads
	ch <- c.writes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, count := range c.source.Counters() {
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(count.Total), name)
		ch <- prometheus.MustNewConstMetric(c.ram, prometheus.GaugeValue, float64(count.RAM), name)
	}
	ch <- prometheus.MustNewConstMetric(c.reads, prometheus.CounterValue, float64(c.source.ReadDisk()))
	ch <- prometheus.MustNewConstMetric(c.writes, prometheus.CounterValue, float64(c.source.WriteDisk()))
}

// NewRegistry returns a registry exporting the collector alongside the go
// runtime and process collectors.
func NewRegistry(source Source) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		NewCollector(source),
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return registry
}
