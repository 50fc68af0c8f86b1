// Example mint: queue a mint and follow each stage separately.
//
// Usage:
//
//	POAP_API_KEY=... POAP_CLIENT_ID=... POAP_CLIENT_SECRET=... go run ./example/mint <mint-code> <address>
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hedeqiang/poapmint"
	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/retry"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatal("usage: mint <mint-code> <address>")
	}
	code, address := os.Args[1], os.Args[2]

	c, err := poapmint.New(
		poapmint.WithConfig(poapmint.ConfigFromEnv()),
		poapmint.WithRetry(retry.Config{MaxRetries: 30, InitialDelay: 500 * time.Millisecond, BackoffFactor: 1.3}),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := c.MintAsync(ctx, poapmint.WalletMintInput{MintCode: code, Address: address}); err != nil {
		log.Fatal(err)
	}
	fmt.Println("mint queued")

	tx, err := c.WaitMintStatus(ctx, code)
	var finished *poap.FinishedWithError
	switch {
	case errors.As(err, &finished):
		log.Fatalf("mint failed: %s", finished.Reason)
	case errors.Is(err, retry.ErrBudgetExhausted):
		log.Fatalf("gave up waiting; the mint may still complete: %v", err)
	case err != nil:
		log.Fatal(err)
	}
	fmt.Println("transaction:", tx.TxHash)

	status, err := c.WaitPoapIndexed(ctx, code)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("indexed as POAP", *status.PoapID)
}
