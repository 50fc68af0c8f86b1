package poap

import "fmt"

// FinishedWithError is the terminal failure of a mint: the transaction failed
// on-chain, or the token never became readable after indexing.
type FinishedWithError struct {
	MintCode string
	Reason   string
}

func (e *FinishedWithError) Error() string {
	return fmt.Sprintf("poap: code %q finished with error: %s, please try again later", e.MintCode, e.Reason)
}

// MintPendingError reports a mint that is not final yet. Pollers use it as a
// retry reason; it only surfaces wrapped in a budget exhaustion error.
type MintPendingError struct {
	MintCode string
	Status   TransactionStatus
}

func (e *MintPendingError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("poap: mint code %q is still pending", e.MintCode)
	}
	return fmt.Sprintf("poap: mint code %q is still pending (status %q)", e.MintCode, e.Status)
}

// CodeAlreadyMintedError is returned when a mint code has already been claimed.
type CodeAlreadyMintedError struct {
	MintCode string
}

func (e *CodeAlreadyMintedError) Error() string {
	return fmt.Sprintf("poap: code %q already minted", e.MintCode)
}

// CodeExpiredError is returned when a mint code is no longer active.
type CodeExpiredError struct {
	MintCode string
}

func (e *CodeExpiredError) Error() string {
	return fmt.Sprintf("poap: code %q has expired", e.MintCode)
}
