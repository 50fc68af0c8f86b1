package watcher

import (
	"context"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
	"github.com/hedeqiang/poapmint/retry"
)

// IndexingPoller waits until the token minted for a code is indexed.
// Indexing has no failure state: only the budget or ctx end the wait early.
type IndexingPoller struct {
	provider provider.StatusProvider
	code     string
	opts     options
}

// NewIndexingPoller creates a poller for code.
func NewIndexingPoller(p provider.StatusProvider, code string, opts ...Option) *IndexingPoller {
	return &IndexingPoller{
		provider: p,
		code:     code,
		opts:     newOptions(opts),
	}
}

// Wait blocks until the mint code carries a token id.
func (p *IndexingPoller) Wait(ctx context.Context) (poap.MintStatus, error) {
	b := p.opts.budgetFor(indexingPoller, p.code)
	return run(ctx, p.opts, indexingPoller, p.code, b, p.check)
}

func (p *IndexingPoller) check(ctx context.Context) retry.Outcome[poap.MintStatus] {
	resp, err := p.provider.GetMintCode(ctx, p.code)
	if err != nil {
		return retry.Retry[poap.MintStatus](err)
	}
	if resp == nil || resp.Result == nil {
		return retry.Retry[poap.MintStatus](&poap.MintPendingError{MintCode: p.code})
	}

	token := resp.Result.Token
	return retry.Success(poap.MintStatus{
		Minted:   resp.Claimed,
		IsActive: resp.IsActive,
		PoapID:   &token,
	})
}
