// Package main demonstrates how to use the poapmint SDK.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hedeqiang/poapmint"
	mw "github.com/hedeqiang/poapmint/middleware"
	"github.com/hedeqiang/poapmint/retry"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatal("usage: example <mint-code> <address>")
	}

	// 1. Create the client from POAP_* environment variables
	c, err := poapmint.New(
		poapmint.WithConfig(poapmint.ConfigFromEnv()),
		poapmint.WithCircuitBreaker(retry.NewCircuitBreaker(5, 30*time.Second)),
		poapmint.WithMiddleware(mw.NewLogger(nil), mw.NewRateLimit(200*time.Millisecond)),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	// 2. Cancel the wait on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Mint and wait until the token is readable
	token, err := c.MintSync(ctx, poapmint.WalletMintInput{
		MintCode: os.Args[1],
		Address:  os.Args[2],
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("minted POAP #%d (%s) to %s\n", token.ID, token.Name, token.CollectorAddress)
}
