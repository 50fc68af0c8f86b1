// Example reserve: reserve a POAP for an email address.
//
// Usage:
//
//	POAP_API_KEY=... POAP_REDIS_URL=redis://localhost:6379/0 go run ./example/reserve <mint-code> <email>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hedeqiang/poapmint"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatal("usage: reserve <mint-code> <email>")
	}

	c, err := poapmint.New(poapmint.WithConfig(poapmint.ConfigFromEnv()))
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := c.EmailReservation(ctx, poapmint.EmailReservationInput{
		MintCode: os.Args[1],
		Email:    os.Args[2],
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("reserved %q (drop %d, %s) for %s\n", r.Name, r.DropID, r.StartDate.Format("2006-01-02"), r.Email)
}
