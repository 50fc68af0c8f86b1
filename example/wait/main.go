// Example wait: wait for several submitted mint codes and expose the
// poller metrics.
//
// Usage:
//
//	POAP_API_KEY=... go run ./example/wait <mint-code>...
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hedeqiang/poapmint"
	mw "github.com/hedeqiang/poapmint/middleware"
)

func main() {
	codes := os.Args[1:]
	if len(codes) == 0 {
		log.Fatal("usage: wait <mint-code>...")
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9100", nil); err != nil {
			log.Printf("metrics server: %v", err)
		}
	}()

	metrics := mw.NewMetrics()
	c, err := poapmint.New(
		poapmint.WithConfig(poapmint.ConfigFromEnv()),
		poapmint.WithMiddleware(metrics),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, r := range c.WaitAll(ctx, codes) {
		if r.Err != nil {
			fmt.Printf("%s: %v\n", r.MintCode, r.Err)
			continue
		}
		fmt.Printf("%s: tx=%s poap=%d\n", r.MintCode, r.Transaction.TxHash, *r.Status.PoapID)
	}
	fmt.Printf("%d provider calls, %d failed\n", metrics.Requests(), metrics.Failed())
}
