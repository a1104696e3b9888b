package consensus

import "fmt"

type ErrorCode string

const (
	TX_ERR_PARSE              ErrorCode = "TX_ERR_PARSE"
	TX_ERR_AUTH_MISMATCH      ErrorCode = "TX_ERR_AUTH_MISMATCH"
	TX_ERR_BAD_SIGNATURE      ErrorCode = "TX_ERR_BAD_SIGNATURE"
	TX_ERR_INVALID_TRANSITION ErrorCode = "TX_ERR_INVALID_TRANSITION"
	TX_ERR_LINEAGE_BROKEN     ErrorCode = "TX_ERR_LINEAGE_BROKEN"
)

// TxError is a verification-time abort. Every check is a hard verify: the
// first failing check rejects the whole transaction, and the only recovery
// is for the builder to construct a corrected witness or transaction.
type TxError struct {
	Code ErrorCode
	Msg  string
}

func (e *TxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func txerr(code ErrorCode, msg string) error {
	return &TxError{Code: code, Msg: msg}
}

// CodeOf extracts the abort code from err, or "" for non-TxError errors.
func CodeOf(err error) ErrorCode {
	if te, ok := err.(*TxError); ok {
		return te.Code
	}
	return ""
}
