package observability

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgReasons names the SQLSTATEs the ledger schema can raise. Anything else
// is reported by its raw code.
var pgReasons = map[string]string{
	"23505": "unique_violation",
	"23503": "foreign_key_violation",
	"23514": "check_violation",
	"22003": "numeric_out_of_range",
	"22P02": "invalid_text",
	"40001": "serialization_failure",
	"40P01": "deadlock",
	"55P03": "lock_not_available",
	"57014": "query_canceled",
}

// ObserveDB times one storage call. A missing row is an answer, not a
// failure, so pgx.ErrNoRows is counted as ok.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if reason, ok := pgReasons[pgErr.Code]; ok {
			return reason
		}
		return "pg_" + pgErr.Code
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	if msg := strings.ToLower(err.Error()); strings.Contains(msg, "connect") {
		return "connection"
	}
	return "unknown"
}
