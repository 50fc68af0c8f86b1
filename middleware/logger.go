package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
)

// Logger logs each status provider call.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logging middleware using the provided logger.
// If logger is nil, slog.Default is used.
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{logger: l}
}

// Wrap decorates the provider with call logging.
func (l *Logger) Wrap(next provider.StatusProvider) provider.StatusProvider {
	return &loggingProvider{next: next, logger: l.logger}
}

type loggingProvider struct {
	next   provider.StatusProvider
	logger *slog.Logger
}

func (p *loggingProvider) GetMintTransaction(ctx context.Context, code string) (*poap.Transaction, error) {
	start := time.Now()
	tx, err := p.next.GetMintTransaction(ctx, code)
	if err != nil {
		p.logger.WarnContext(ctx, "get mint transaction failed", "mint_code", code, "duration", time.Since(start), "error", err)
		return tx, err
	}

	status := "none"
	if tx != nil {
		status = string(tx.Status)
	}
	p.logger.DebugContext(ctx, "get mint transaction", "mint_code", code, "status", status, "duration", time.Since(start))
	return tx, nil
}

func (p *loggingProvider) GetMintCode(ctx context.Context, code string) (*provider.MintCodeResponse, error) {
	start := time.Now()
	resp, err := p.next.GetMintCode(ctx, code)
	if err != nil {
		p.logger.WarnContext(ctx, "get mint code failed", "mint_code", code, "duration", time.Since(start), "error", err)
		return resp, err
	}
	claimed := resp != nil && resp.Claimed
	indexed := resp != nil && resp.Result != nil
	p.logger.DebugContext(ctx, "get mint code", "mint_code", code, "claimed", claimed, "indexed", indexed, "duration", time.Since(start))
	return resp, nil
}
