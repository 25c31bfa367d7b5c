package dexrouter

import "github.com/ethereum/go-ethereum/common"

// CronosRouter is the VVS Finance router on Cronos.
var CronosRouter = common.HexToAddress("0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae")

// CronosReference is the wrapped gas asset every pool quote is
// denominated in.
func CronosReference() Reference {
	return Reference{
		Token:    common.HexToAddress("0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23"),
		Symbol:   "WCRO",
		Decimals: 18,
	}
}

// CronosPools lists the tokens priced via the router when both oracle
// APIs fail.
func CronosPools() map[string]Pool {
	return map[string]Pool{
		"VVS": {Token: common.HexToAddress("0x2D03bECE6747ADC00E1a131BBA1469C15fD11e03"), Decimals: 18},
	}
}
