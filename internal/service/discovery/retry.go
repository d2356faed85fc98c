package discovery

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/go-sql-driver/mysql"
)

// isTransient reports whether err looks like a dropped connection rather
// than a bad query or a caller cancellation.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// readOnce runs a read and retries it a single time on a transient failure.
// Only reads go through here; writes are never replayed.
func readOnce[T any](ctx context.Context, log *slog.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !isTransient(err) || ctx.Err() != nil {
		return v, err
	}
	log.Warn("transient read failure, retrying", "op", op, "err", err)
	return fn(ctx)
}
