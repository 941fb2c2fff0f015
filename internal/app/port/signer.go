package port

import "wallet_engine/internal/domain/entity"

// TransactionSigner produces the signed wire payload and transaction id for
// an unsigned draft at the given nonce. Deterministic for the same fields and
// key material; the nonce is part of the signed bytes, so every nonce
// adjustment requires a full re-sign.
type TransactionSigner interface {
	Sign(tx *entity.Transaction, nonce string) (signedPayload string, txid string, err error)
}
