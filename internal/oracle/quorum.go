package oracle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
	"oraclefeed/pkg/utils"
)

// Quorum gates oracle answers behind agreement: it fans a query out to
// several independent responders in parallel and accepts a price only when
// enough of them land on the same value. Individual responder failures are
// tolerated as long as the survivors still reach the quorum.
type Quorum struct {
	responders []Client
	required   int
	tolerance  decimal.Decimal
	retry      utils.RetryConfig
	logger     zerolog.Logger
}

// QuorumOption configures a Quorum.
type QuorumOption func(*Quorum)

// WithRequired overrides the minimum number of agreeing responders.
// Values below 1 or above the responder count are clamped.
func WithRequired(n int) QuorumOption {
	return func(q *Quorum) { q.required = n }
}

// WithTolerance sets the relative price tolerance for two answers to count
// as agreeing, e.g. 0.005 for half a percent.
func WithTolerance(t decimal.Decimal) QuorumOption {
	return func(q *Quorum) { q.tolerance = t }
}

// WithRetry sets the per-responder retry policy.
func WithRetry(cfg utils.RetryConfig) QuorumOption {
	return func(q *Quorum) { q.retry = cfg }
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) QuorumOption {
	return func(q *Quorum) { q.logger = logger }
}

// NewQuorum creates a quorum over the given responders. The default
// requirement is a strict majority.
func NewQuorum(responders []Client, opts ...QuorumOption) (*Quorum, error) {
	if len(responders) == 0 {
		return nil, fmt.Errorf("quorum needs at least one responder")
	}
	q := &Quorum{
		responders: responders,
		required:   len(responders)/2 + 1,
		tolerance:  decimal.NewFromFloat(0.005),
		retry:      utils.DefaultRetryConfig(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.required < 1 {
		q.required = 1
	}
	if q.required > len(responders) {
		q.required = len(responders)
	}
	return q, nil
}

// responderResult holds one responder's answer or failure.
type responderResult struct {
	index int
	resp  *Response
	err   error
}

// Query runs the request against every responder in parallel and returns the
// representative answer of the largest agreeing cluster, or a typed failure.
func (q *Quorum) Query(ctx context.Context, req Request) (*Response, error) {
	resultChan := make(chan responderResult, len(q.responders))

	var wg sync.WaitGroup
	for i, responder := range q.responders {
		wg.Add(1)
		go func(idx int, c Client) {
			defer wg.Done()
			resp, err := utils.RetryWithResult(ctx, q.retry, func() (*Response, error) {
				return c.Query(ctx, req)
			})
			resultChan <- responderResult{index: idx, resp: resp, err: err}
		}(i, responder)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var responses []*Response
	var failures []error
	for rr := range resultChan {
		if rr.err != nil {
			q.logger.Debug().
				Int("responder", rr.index).
				Str("source_id", req.SourceID).
				Err(rr.err).
				Msg("Oracle responder failed")
			failures = append(failures, rr.err)
			continue
		}
		responses = append(responses, rr.resp)
	}

	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: all %d responders failed for %s/%s: %v",
			models.ErrOracleUnavailable, len(q.responders), req.SourceID, req.Currency, failures)
	}

	cluster := q.largestCluster(responses)
	if len(cluster) < q.required {
		q.logger.Warn().
			Str("source_id", req.SourceID).
			Int("answers", len(responses)).
			Int("agreeing", len(cluster)).
			Int("required", q.required).
			Msg("Oracle answers failed to reach quorum")
		return nil, fmt.Errorf("%w: %d of %d answers agree, %d required for %s/%s",
			models.ErrConsensusRejected, len(cluster), len(responses), q.required, req.SourceID, req.Currency)
	}

	accepted := median(cluster)
	q.logger.Debug().
		Str("source_id", req.SourceID).
		Str("price", accepted.Price.String()).
		Int("agreeing", len(cluster)).
		Int("answers", len(responses)).
		Msg("Oracle answer accepted")
	return accepted, nil
}

// largestCluster groups responses whose prices agree within the tolerance
// and returns the biggest group. Each response is tried as an anchor; the
// first maximal cluster in price order wins, keeping the result stable.
func (q *Quorum) largestCluster(responses []*Response) []*Response {
	sorted := make([]*Response, len(responses))
	copy(sorted, responses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price.LessThan(sorted[j].Price)
	})

	var best []*Response
	for _, anchor := range sorted {
		var cluster []*Response
		for _, r := range sorted {
			if q.agrees(anchor.Price, r.Price) {
				cluster = append(cluster, r)
			}
		}
		if len(cluster) > len(best) {
			best = cluster
		}
	}
	return best
}

// agrees reports whether two prices fall within the relative tolerance.
// Zero prices only agree with exact zeros.
func (q *Quorum) agrees(a, b decimal.Decimal) bool {
	if a.Equal(b) {
		return true
	}
	larger := a
	if b.GreaterThan(larger) {
		larger = b
	}
	if larger.IsZero() {
		return false
	}
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(larger.Mul(q.tolerance))
}

// median returns the middle response of a price-sorted cluster, so the
// accepted value and its optional fields come from one coherent answer.
func median(cluster []*Response) *Response {
	sorted := make([]*Response, len(cluster))
	copy(sorted, cluster)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price.LessThan(sorted[j].Price)
	})
	return sorted[len(sorted)/2]
}
