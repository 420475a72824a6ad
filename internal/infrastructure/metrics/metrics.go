package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Journal metrics
	EntriesPosted      prometheus.Counter
	EntriesReversed    prometheus.Counter
	DuplicatesAbsorbed prometheus.Counter
	PostingDuration    prometheus.Histogram
	PostingErrors      *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountBalance  *prometheus.GaugeVec

	// Loan metrics
	LoansDisbursed    prometheus.Counter
	LoansClosed       prometheus.Counter
	LoansWrittenOff   prometheus.Counter
	PaymentsAllocated prometheus.Counter
	PaymentAmount     prometheus.Histogram
	OverdueMarked     prometheus.Counter

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EntriesPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_journal_entries_posted_total",
			Help: "Total number of journal entries posted",
		}),
		EntriesReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_journal_entries_reversed_total",
			Help: "Total number of journal entries reversed",
		}),
		DuplicatesAbsorbed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_journal_duplicates_absorbed_total",
			Help: "Total number of duplicate references absorbed",
		}),
		PostingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sacco_journal_posting_duration_seconds",
			Help:    "Duration of posting operations",
			Buckets: prometheus.DefBuckets,
		}),
		PostingErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sacco_journal_posting_errors_total",
				Help: "Total number of posting errors by type",
			},
			[]string{"error_type"},
		),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sacco_account_balance",
				Help: "Current account balance",
			},
			[]string{"account_code", "account_type"},
		),

		LoansDisbursed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_loans_disbursed_total",
			Help: "Total number of loans disbursed",
		}),
		LoansClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_loans_closed_total",
			Help: "Total number of loans closed",
		}),
		LoansWrittenOff: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_loans_written_off_total",
			Help: "Total number of loans written off",
		}),
		PaymentsAllocated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_payments_allocated_total",
			Help: "Total number of loan payments allocated",
		}),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sacco_payment_amount",
			Help:    "Loan payment amounts",
			Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 1000000},
		}),
		OverdueMarked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sacco_installments_overdue_total",
			Help: "Total number of installments marked overdue",
		}),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sacco_outbox_events_published_total",
				Help: "Total outbox events published",
			},
			[]string{"event_type"},
		),
	}
}
