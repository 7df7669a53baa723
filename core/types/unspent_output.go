package types

// UnspentOutput is a spendable output tracked by the UTXO index
type UnspentOutput struct {
	OutPoint OutPoint
	TxOut    *TxOut
	Height   int32
}

// Account returns the owner of the output
func (u *UnspentOutput) Account() (Account, bool) {
	return u.TxOut.Account()
}
