package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Spok95/stock-ledger/internal/infra/metrics"
)

// ErrInconsistent журнал и остатки разошлись: вторая запись упала, откатить первую не удалось.
var ErrInconsistent = errors.New("reconcile: ledger and registry out of sync")

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

// unitOfWork пара записей «журнал + остаток». Первая запись регистрирует откат,
// при сбое второй откаты выполняются в обратном порядке.
type unitOfWork struct {
	op         string
	compensate bool
	log        *slog.Logger
	metrics    *metrics.Reconcile
	undo       []undoStep
}

func (u *unitOfWork) onRollback(name string, fn func(ctx context.Context) error) {
	u.undo = append(u.undo, undoStep{name: name, fn: fn})
}

// fail возвращает исходную ошибку; если откат не удался, вместе с ErrInconsistent.
func (u *unitOfWork) fail(ctx context.Context, err error) error {
	if len(u.undo) == 0 {
		return err
	}
	if !u.compensate {
		u.log.Error("partial write left in place", "op", u.op, "err", err)
		return err
	}

	ctx = context.WithoutCancel(ctx)
	var undoErrs []error
	for i := len(u.undo) - 1; i >= 0; i-- {
		step := u.undo[i]
		if uerr := step.fn(ctx); uerr != nil {
			u.log.Error("rollback failed", "op", u.op, "step", step.name, "err", uerr)
			undoErrs = append(undoErrs, fmt.Errorf("%s: %w", step.name, uerr))
		}
	}
	u.undo = nil

	if len(undoErrs) > 0 {
		u.metrics.Compensated(u.op, ErrInconsistent)
		return errors.Join(err, ErrInconsistent, errors.Join(undoErrs...))
	}
	u.metrics.Compensated(u.op, nil)
	u.log.Warn("write rolled back", "op", u.op, "err", err)
	return err
}
