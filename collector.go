package lexical

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DocumentCollector exposes a document's registry and update activity
// as prometheus metrics, labeled by document id.
type DocumentCollector struct {
	doc *Document

	registeredNodes *prometheus.Desc
	keysIssued      *prometheus.Desc
	updatesTotal    *prometheus.Desc
	rollbacksTotal  *prometheus.Desc
	contentCacheLen *prometheus.Desc
}

func NewDocumentCollector(doc *Document) *DocumentCollector {
	labels := prometheus.Labels{"document": doc.id.String()}
	return &DocumentCollector{
		doc: doc,

		registeredNodes: prometheus.NewDesc(
			"lexical_document_nodes",
			"Number of committed nodes in the registry",
			nil, labels,
		),
		keysIssued: prometheus.NewDesc(
			"lexical_document_keys_issued_total",
			"Total node keys ever issued",
			nil, labels,
		),
		updatesTotal: prometheus.NewDesc(
			"lexical_document_updates_total",
			"Total committed update scopes",
			nil, labels,
		),
		rollbacksTotal: prometheus.NewDesc(
			"lexical_document_rollbacks_total",
			"Total abandoned update scopes",
			nil, labels,
		),
		contentCacheLen: prometheus.NewDesc(
			"lexical_document_content_cache_entries",
			"Entries in the committed text-content cache",
			nil, labels,
		),
	}
}

func (dc *DocumentCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- dc.registeredNodes
	ch <- dc.keysIssued
	ch <- dc.updatesTotal
	ch <- dc.rollbacksTotal
	ch <- dc.contentCacheLen
}

func (dc *DocumentCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		dc.registeredNodes, prometheus.GaugeValue, float64(dc.doc.Size()))
	ch <- prometheus.MustNewConstMetric(
		dc.keysIssued, prometheus.CounterValue, float64(dc.doc.created.Load()))
	ch <- prometheus.MustNewConstMetric(
		dc.updatesTotal, prometheus.CounterValue, float64(dc.doc.committed.Load()))
	ch <- prometheus.MustNewConstMetric(
		dc.rollbacksTotal, prometheus.CounterValue, float64(dc.doc.rolledBack.Load()))
	ch <- prometheus.MustNewConstMetric(
		dc.contentCacheLen, prometheus.GaugeValue, float64(dc.doc.content.Len()))
}
