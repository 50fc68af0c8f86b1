package provider

import (
	"strings"
	"time"
)

// Drop is the event a mint code belongs to, as returned by the Tokens API.
type Drop struct {
	ID          int64  `json:"id"`
	FancyID     string `json:"fancy_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	City        string `json:"city"`
	Country     string `json:"country"`
	ImageURL    string `json:"image_url"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// MintResult is present on a mint code once the token has been indexed.
type MintResult struct {
	Token int64 `json:"token"`
}

// MintCodeResponse is the mint code record.
type MintCodeResponse struct {
	ID          int64       `json:"id"`
	QRHash      string      `json:"qr_hash"`
	TxHash      string      `json:"tx_hash,omitempty"`
	EventID     int64       `json:"event_id"`
	Beneficiary string      `json:"beneficiary,omitempty"`
	Signer      string      `json:"signer,omitempty"`
	Claimed     bool        `json:"claimed"`
	IsActive    bool        `json:"is_active"`
	Secret      string      `json:"secret"`
	Event       Drop        `json:"event"`
	Result      *MintResult `json:"result"`
}

// MintCodeInput submits a mint for a wallet address or an email.
type MintCodeInput struct {
	Address   string `json:"address"`
	QRHash    string `json:"qr_hash"`
	Secret    string `json:"secret"`
	SendEmail bool   `json:"sendEmail"`
}

// PostMintCodeResponse is returned after a mint has been queued.
type PostMintCodeResponse struct {
	ID          int64  `json:"id"`
	QRHash      string `json:"qr_hash"`
	QueueUID    string `json:"queue_uid"`
	EventID     int64  `json:"event_id"`
	Beneficiary string `json:"beneficiary"`
	Signer      string `json:"signer"`
	Claimed     bool   `json:"claimed"`
	Event       Drop   `json:"event"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02-Jan-2006",
	"2006-01-02 15:04:05",
}

// ParseDate parses the date formats used by the POAP APIs. Unparseable
// values yield the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
