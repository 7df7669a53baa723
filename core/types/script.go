package types

// script opcodes used by pay-to-pubkey-hash
const (
	opDup         = 0x76
	opHash160     = 0xa9
	opData20      = 0x14
	opEqualVerify = 0x88
	opCheckSig    = 0xac
)

// PayToAccountScript returns the pay-to-pubkey-hash script of the account
func PayToAccountScript(acc Account) []byte {
	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, opData20)
	script = append(script, acc[:]...)
	script = append(script, opEqualVerify, opCheckSig)
	return script
}

// ScriptAccount extracts the account of a pay-to-pubkey-hash script
func ScriptAccount(script []byte) (Account, bool) {
	if len(script) != 25 ||
		script[0] != opDup ||
		script[1] != opHash160 ||
		script[2] != opData20 ||
		script[23] != opEqualVerify ||
		script[24] != opCheckSig {
		return Account{}, false
	}
	var acc Account
	copy(acc[:], script[3:23])
	return acc, true
}
