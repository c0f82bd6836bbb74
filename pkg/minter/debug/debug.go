package debug

// Debug gates every toggle in this package. Release builds set it to "false"
// with -ldflags "-X github.com/NethermindEth/solmint/pkg/minter/debug.Debug=false".
var Debug = "true"

func IsDebug() bool {
	return Debug == "true"
}

// IsDebugPlainSetup stores the setup result unencrypted, for running outside
// an enclave.
func IsDebugPlainSetup() bool {
	return IsDebug() && isDebugPlainSetupSet()
}

func IsDebugShowSetup() bool {
	return IsDebug() && isDebugShowSetupSet()
}

// IsDebugGin keeps gin in debug mode with its route and request logging.
func IsDebugGin() bool {
	return IsDebug() && isDebugGinSet()
}
