package watcher

import (
	"context"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
	"github.com/hedeqiang/poapmint/retry"
)

// TransactionPoller waits until the transaction of a mint code is final.
type TransactionPoller struct {
	provider provider.StatusProvider
	code     string
	opts     options
}

// NewTransactionPoller creates a poller for code.
func NewTransactionPoller(p provider.StatusProvider, code string, opts ...Option) *TransactionPoller {
	return &TransactionPoller{
		provider: p,
		code:     code,
		opts:     newOptions(opts),
	}
}

// Wait blocks until the transaction passes or fails, the budget runs out,
// or ctx ends. A failed transaction is returned as *poap.FinishedWithError
// without further retries. Budget exhaustion matches retry.ErrBudgetExhausted.
func (p *TransactionPoller) Wait(ctx context.Context) (poap.MintTransaction, error) {
	b := p.opts.budgetFor(transactionPoller, p.code)
	return run(ctx, p.opts, transactionPoller, p.code, b, p.check)
}

func (p *TransactionPoller) check(ctx context.Context) retry.Outcome[poap.MintTransaction] {
	tx, err := p.provider.GetMintTransaction(ctx, p.code)
	if err != nil {
		return retry.Retry[poap.MintTransaction](err)
	}
	if tx == nil {
		return retry.Retry[poap.MintTransaction](&poap.MintPendingError{MintCode: p.code})
	}

	switch tx.Status {
	case poap.StatusPassed:
		return retry.Success(poap.MintTransaction{TxHash: tx.TxHash})
	case poap.StatusFailed:
		return retry.Failure[poap.MintTransaction](&poap.FinishedWithError{
			MintCode: p.code,
			Reason:   "The Transaction associated with this mint failed",
		})
	default:
		// Pending and statuses we do not know are never fatal.
		return retry.Retry[poap.MintTransaction](&poap.MintPendingError{MintCode: p.code, Status: tx.Status})
	}
}
