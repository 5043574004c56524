package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics methods are safe to call on a nil *Metrics, which records
// nothing.
type Metrics struct {
	txSubmissions     *prometheus.CounterVec
	getBlocksRequests prometheus.Counter
	blocksServed      prometheus.Counter
	peerMisbehavior   prometheus.Counter
	poolPending       prometheus.Gauge
	poolOrphan        prometheus.Gauge
	blocksConnected   prometheus.Counter
	txsAnnounced      prometheus.Counter
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := Metrics{
		// admission
		txSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_tx_submissions_total", namespace),
			Help: "Locally submitted transactions by result",
		}, []string{"result"}),
		poolPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_tx_pool_pending", namespace),
			Help: "Pending transactions at the last pool info query",
		}),
		poolOrphan: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_tx_pool_orphan", namespace),
			Help: "Orphan transactions at the last pool info query",
		}),
		// block serving
		getBlocksRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_get_blocks_requests_total", namespace),
			Help: "GetBlocks requests received from peers",
		}),
		blocksServed: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_blocks_served_total", namespace),
			Help: "Blocks sent to peers in response to GetBlocks",
		}),
		peerMisbehavior: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_peer_misbehavior_total", namespace),
			Help: "Protocol violations reported against peers",
		}),
		// chain and relay
		blocksConnected: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_blocks_connected_total", namespace),
			Help: "Blocks imported into the chain store",
		}),
		txsAnnounced: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_txs_announced_total", namespace),
			Help: "Locally submitted transactions handed to relay",
		}),
	}
	return &m
}

// Result labels for TxSubmitted.
const (
	ResultAccepted          = "accepted"
	ResultInvalidOutputs    = "invalid_outputs"
	ResultLowFeeRate        = "low_fee_rate"
	ResultAncestorsExceeded = "ancestors_exceeded"
	ResultRejected          = "rejected"
	ResultMalformed         = "malformed"
	ResultInternalError     = "internal_error"
)

func (m *Metrics) TxSubmitted(result string) {
	if m == nil {
		return
	}
	m.txSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) SetPoolSize(pending, orphan uint64) {
	if m == nil {
		return
	}
	m.poolPending.Set(float64(pending))
	m.poolOrphan.Set(float64(orphan))
}

func (m *Metrics) GetBlocksRequest() {
	if m == nil {
		return
	}
	m.getBlocksRequests.Inc()
}

func (m *Metrics) BlockServed() {
	if m == nil {
		return
	}
	m.blocksServed.Inc()
}

func (m *Metrics) PeerMisbehaved() {
	if m == nil {
		return
	}
	m.peerMisbehavior.Inc()
}

func (m *Metrics) BlockConnected() {
	if m == nil {
		return
	}
	m.blocksConnected.Inc()
}

func (m *Metrics) TxsAnnounced(n int) {
	if m == nil {
		return
	}
	m.txsAnnounced.Add(float64(n))
}
