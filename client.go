// Package poapmint is an SDK for minting POAPs and waiting for the mint to
// settle.
//
// A mint is eventually consistent: submitting it only queues the work. The
// client hides this behind pollers that wait, with bounded geometric
// backoff, until the mint transaction is final and the token is indexed.
//
// Usage:
//
//	c, err := poapmint.New(
//	    poapmint.WithAPIKey(os.Getenv("POAP_API_KEY")),
//	    poapmint.WithCredentials(clientID, clientSecret),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	token, err := c.MintSync(ctx, poapmint.WalletMintInput{
//	    MintCode: "abc123",
//	    Address:  "0x...",
//	})
package poapmint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/hedeqiang/poapmint/auth"
	"github.com/hedeqiang/poapmint/internal/syncutil"
	"github.com/hedeqiang/poapmint/middleware"
	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
	"github.com/hedeqiang/poapmint/provider/compass"
	"github.com/hedeqiang/poapmint/provider/tokensapi"
	"github.com/hedeqiang/poapmint/retry"
	"github.com/hedeqiang/poapmint/tokencache"
	"github.com/hedeqiang/poapmint/transport"
	"github.com/hedeqiang/poapmint/watcher"
)

// WalletMintInput mints a code to a wallet.
type WalletMintInput struct {
	MintCode string

	// Address is an Ethereum address or an ENS name.
	Address string
}

// EmailReservationInput reserves a code for an email address.
type EmailReservationInput struct {
	MintCode string
	Email    string

	// SkipEmail disables the claim email sent to Email.
	SkipEmail bool
}

// WaitResult is the settled state of one mint code passed to WaitAll.
type WaitResult struct {
	MintCode    string
	Transaction poap.MintTransaction
	Status      poap.MintStatus
	Err         error
}

// Client is the SDK entry point.
type Client struct {
	config      Config
	logger      *slog.Logger
	tokens      provider.TokensAPI
	status      provider.StatusProvider
	compass     provider.Compass
	auth        auth.Provider
	tokenCache  auth.Cache
	breaker     *retry.CircuitBreaker
	sleeper     retry.Sleeper
	middlewares []middleware.Middleware

	closers []io.Closer

	mu     sync.Mutex
	closed bool
}

// New creates a Client. Providers not set through options are built from
// the configuration.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: c.config.level()}))
	}

	if c.tokens == nil {
		tokens, err := c.newTokensAPI()
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.tokens = tokens
	}
	if c.compass == nil {
		cc := compass.New(c.config.CompassURL, c.config.APIKey)
		c.closers = append(c.closers, cc)
		c.compass = cc
	}

	c.status = middleware.Chain(c.tokens, c.middlewares...)
	return c, nil
}

func (c *Client) newTokensAPI() (*tokensapi.Client, error) {
	var topts []transport.Option
	if c.breaker != nil {
		topts = append(topts, transport.WithCircuitBreaker(c.breaker))
	}

	if c.auth == nil && c.config.ClientID != "" {
		cache, err := c.newTokenCache()
		if err != nil {
			return nil, err
		}
		p, err := auth.NewHTTP(c.config.ClientID, c.config.ClientSecret, c.config.OAuthDomain,
			auth.WithCache(cache),
			auth.WithLogger(c.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("poapmint: %w", err)
		}
		c.auth = p
	}
	if c.auth != nil {
		topts = append(topts, transport.WithHeaderFunc(auth.Bearer(c.auth, c.config.Audience)))
	}

	return tokensapi.New(c.config.TokensAPIURL, c.config.APIKey, topts...), nil
}

func (c *Client) newTokenCache() (auth.Cache, error) {
	switch {
	case c.tokenCache != nil:
		return c.tokenCache, nil
	case c.config.RedisURL != "":
		ropts, err := redis.ParseURL(c.config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("poapmint: redis url: %w", err)
		}
		rdb := redis.NewClient(ropts)
		c.closers = append(c.closers, rdb)
		return tokencache.NewRedis(rdb), nil
	case c.config.TokenCacheFile != "":
		return tokencache.NewFile(c.config.TokenCacheFile), nil
	default:
		return auth.NewMemoryCache(), nil
	}
}

func (c *Client) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Close releases connections held by the client.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	closers := c.closers
	c.mu.Unlock()

	var errs []error
	for _, cl := range closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) pollerOptions() []watcher.Option {
	opts := []watcher.Option{
		watcher.WithConfig(c.config.Retry),
		watcher.WithLogger(c.logger),
	}
	if c.sleeper != nil {
		opts = append(opts, watcher.WithSleeper(c.sleeper))
	}
	return opts
}

// GetMintCode returns the current status of a mint code.
func (c *Client) GetMintCode(ctx context.Context, code string) (poap.MintStatus, error) {
	if code == "" {
		return poap.MintStatus{}, ErrEmptyMintCode
	}
	if err := c.checkOpen(); err != nil {
		return poap.MintStatus{}, err
	}

	resp, err := c.status.GetMintCode(ctx, code)
	if err != nil {
		return poap.MintStatus{}, err
	}
	if resp == nil {
		return poap.MintStatus{}, fmt.Errorf("poapmint: get mint code: %w", ErrEmptyResponse)
	}

	status := poap.MintStatus{
		Minted:   resp.Claimed,
		IsActive: resp.IsActive,
	}
	if resp.Result != nil {
		id := resp.Result.Token
		status.PoapID = &id
	}
	return status, nil
}

// WaitMintStatus waits until the transaction of code is final. A failed
// transaction is returned as *poap.FinishedWithError.
func (c *Client) WaitMintStatus(ctx context.Context, code string) (poap.MintTransaction, error) {
	if code == "" {
		return poap.MintTransaction{}, ErrEmptyMintCode
	}
	if err := c.checkOpen(); err != nil {
		return poap.MintTransaction{}, err
	}
	return watcher.NewTransactionPoller(c.status, code, c.pollerOptions()...).Wait(ctx)
}

// WaitPoapIndexed waits until the token minted for code is indexed.
func (c *Client) WaitPoapIndexed(ctx context.Context, code string) (poap.MintStatus, error) {
	if code == "" {
		return poap.MintStatus{}, ErrEmptyMintCode
	}
	if err := c.checkOpen(); err != nil {
		return poap.MintStatus{}, err
	}
	return watcher.NewIndexingPoller(c.status, code, c.pollerOptions()...).Wait(ctx)
}

// checkMintCode verifies that code can still be minted and returns its secret.
func (c *Client) checkMintCode(ctx context.Context, code string) (string, error) {
	resp, err := c.tokens.GetMintCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("poapmint: check mint code: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("poapmint: check mint code: %w", ErrEmptyResponse)
	}
	if resp.Claimed {
		return "", &poap.CodeAlreadyMintedError{MintCode: code}
	}
	if !resp.IsActive {
		return "", &poap.CodeExpiredError{MintCode: code}
	}
	return resp.Secret, nil
}

// MintAsync queues a mint of in.MintCode to in.Address and returns once the
// Tokens API accepted it.
func (c *Client) MintAsync(ctx context.Context, in WalletMintInput) error {
	if in.MintCode == "" {
		return ErrEmptyMintCode
	}
	if err := poap.ValidateAddress(in.Address); err != nil {
		return err
	}
	if err := c.checkOpen(); err != nil {
		return err
	}

	secret, err := c.checkMintCode(ctx, in.MintCode)
	if err != nil {
		return err
	}

	resp, err := c.tokens.PostMintCode(ctx, provider.MintCodeInput{
		Address: in.Address,
		QRHash:  in.MintCode,
		Secret:  secret,
	})
	if err != nil {
		return fmt.Errorf("poapmint: mint: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("poapmint: mint: %w", ErrEmptyResponse)
	}
	c.logger.Info("mint queued", "mint_code", in.MintCode, "queue_uid", resp.QueueUID, "drop_id", resp.Event.ID)
	return nil
}

// MintSync mints in.MintCode to in.Address and waits until the token can be
// read back: transaction final, token indexed, token visible in Compass.
func (c *Client) MintSync(ctx context.Context, in WalletMintInput) (*poap.POAP, error) {
	if err := c.MintAsync(ctx, in); err != nil {
		return nil, err
	}

	if _, err := c.WaitMintStatus(ctx, in.MintCode); err != nil {
		return nil, err
	}

	status, err := c.WaitPoapIndexed(ctx, in.MintCode)
	if err != nil {
		return nil, err
	}

	token, err := c.Get(ctx, *status.PoapID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, &poap.FinishedWithError{MintCode: in.MintCode, Reason: "Token is not yet available"}
	}
	return token, nil
}

// EmailReservation reserves in.MintCode for in.Email.
func (c *Client) EmailReservation(ctx context.Context, in EmailReservationInput) (poap.Reservation, error) {
	if in.MintCode == "" {
		return poap.Reservation{}, ErrEmptyMintCode
	}
	if !poap.IsEmail(in.Email) {
		return poap.Reservation{}, fmt.Errorf("%w: %q", ErrInvalidEmail, in.Email)
	}
	if err := c.checkOpen(); err != nil {
		return poap.Reservation{}, err
	}

	secret, err := c.checkMintCode(ctx, in.MintCode)
	if err != nil {
		return poap.Reservation{}, err
	}

	resp, err := c.tokens.PostMintCode(ctx, provider.MintCodeInput{
		Address:   in.Email,
		QRHash:    in.MintCode,
		Secret:    secret,
		SendEmail: !in.SkipEmail,
	})
	if err != nil {
		return poap.Reservation{}, fmt.Errorf("poapmint: reserve: %w", err)
	}
	if resp == nil {
		return poap.Reservation{}, fmt.Errorf("poapmint: reserve: %w", ErrEmptyResponse)
	}

	return poap.Reservation{
		Email:       in.Email,
		DropID:      resp.Event.ID,
		ImageURL:    resp.Event.ImageURL,
		City:        resp.Event.City,
		Country:     resp.Event.Country,
		Description: resp.Event.Description,
		StartDate:   provider.ParseDate(resp.Event.StartDate),
		EndDate:     provider.ParseDate(resp.Event.EndDate),
		Name:        resp.Event.Name,
	}, nil
}

// Get returns a token by id, or nil when Compass does not know it.
func (c *Client) Get(ctx context.Context, id int64) (*poap.POAP, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	token, err := compass.GetPOAP(ctx, c.compass, id)
	if err != nil {
		return nil, fmt.Errorf("poapmint: get %d: %w", id, err)
	}
	return token, nil
}

// WaitAll waits for several already submitted mint codes concurrently. Each
// code gets its own poll chain; results are returned in input order.
func (c *Client) WaitAll(ctx context.Context, codes []string) []WaitResult {
	results := make([]WaitResult, len(codes))

	g := syncutil.NewGroup(ctx)
	for i, code := range codes {
		results[i].MintCode = code
		g.Go(func(ctx context.Context) {
			r := &results[i]
			r.Transaction, r.Err = c.WaitMintStatus(ctx, code)
			if r.Err != nil {
				return
			}
			r.Status, r.Err = c.WaitPoapIndexed(ctx, code)
		})
	}
	g.Wait()

	return results
}
