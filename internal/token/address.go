package token

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	xerrors "SLH-Bot/internal/errors"
)

const addressLength = 2 + 2*common.AddressLength

// LooksLikeAddress reports whether s has the shape of a hex address
// (0x prefix, 42 characters). It does not validate the checksum.
func LooksLikeAddress(s string) bool {
	return len(s) == addressLength && strings.HasPrefix(s, "0x")
}

// ValidateChecksum parses s as an EIP-55 address. The input must be exactly
// its checksummed encoding; lower- or upper-case forms are rejected.
func ValidateChecksum(s string) (common.Address, error) {
	if !LooksLikeAddress(s) {
		return common.Address{}, xerrors.New(xerrors.CodeValidation, "地址必须是以 0x 开头的 42 位字符串")
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, xerrors.New(xerrors.CodeValidation, "地址包含非十六进制字符")
	}
	addr := common.HexToAddress(s)
	if addr.Hex() != s {
		return common.Address{}, xerrors.New(xerrors.CodeValidation, "地址校验和不匹配",
			xerrors.WithMetadata("expected", addr.Hex()))
	}
	return addr, nil
}
