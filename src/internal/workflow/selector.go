package workflow

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/VectorBits/solflow/src/internal/model"
)

// Selector returns the 0x-prefixed 4-byte ABI selector of an externally
// callable function, or "" for constructors, fallback, receive and
// non-public functions.
func Selector(f *model.Function) string {
	if f == nil || isSpecial(f) || !externallyVisible(f.Visibility) {
		return ""
	}
	sig := f.SoliditySignature
	if sig == "" {
		sig = f.FullName
	}
	if sig == "" {
		return ""
	}
	return hexutil.Encode(crypto.Keccak256([]byte(sig))[:4])
}
