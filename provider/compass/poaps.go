package compass

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
)

const poapByIDQuery = `
query PoapByID($id: bigint!) {
  poaps(limit: 1, where: { id: { _eq: $id } }) {
    id
    collector_address
    transfer_count
    minted_on
    drop_id
    drop {
      image_url
      city
      country
      description
      start_date
      end_date
      name
    }
  }
}`

// number accepts ids and counts encoded either as JSON numbers or strings.
type number int64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("compass: invalid number %q: %w", b, err)
	}
	*n = number(v)
	return nil
}

type poapRecord struct {
	ID               number `json:"id"`
	CollectorAddress string `json:"collector_address"`
	TransferCount    number `json:"transfer_count"`
	MintedOn         number `json:"minted_on"`
	DropID           number `json:"drop_id"`
	Drop             struct {
		ImageURL    string `json:"image_url"`
		City        string `json:"city"`
		Country     string `json:"country"`
		Description string `json:"description"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		Name        string `json:"name"`
	} `json:"drop"`
}

func (r poapRecord) toPOAP() *poap.POAP {
	return &poap.POAP{
		ID:               int64(r.ID),
		CollectorAddress: r.CollectorAddress,
		TransferCount:    int64(r.TransferCount),
		MintedOn:         time.Unix(int64(r.MintedOn), 0).UTC(),
		DropID:           int64(r.DropID),
		ImageURL:         r.Drop.ImageURL,
		City:             r.Drop.City,
		Country:          r.Drop.Country,
		Description:      r.Drop.Description,
		StartDate:        provider.ParseDate(r.Drop.StartDate),
		EndDate:          provider.ParseDate(r.Drop.EndDate),
		Name:             r.Drop.Name,
	}
}

// GetPOAP fetches a single token by id. It returns nil, nil when Compass
// does not know the token.
func GetPOAP(ctx context.Context, c provider.Compass, id int64) (*poap.POAP, error) {
	var data struct {
		Poaps []poapRecord `json:"poaps"`
	}
	if err := c.Request(ctx, poapByIDQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if len(data.Poaps) == 0 {
		return nil, nil
	}
	return data.Poaps[0].toPOAP(), nil
}
