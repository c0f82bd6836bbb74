package debug

import "os"

const (
	DebugPlainSetupKey = "DEBUG_PLAIN_SETUP"
	DebugShowSetupKey  = "DEBUG_SHOW_SETUP"
	DebugGinKey        = "DEBUG_GIN"
)

func isSet(key string) bool {
	return os.Getenv(key) == "true"
}

func isDebugPlainSetupSet() bool {
	return isSet(DebugPlainSetupKey)
}

func isDebugShowSetupSet() bool {
	return isSet(DebugShowSetupKey)
}

func isDebugGinSet() bool {
	return isSet(DebugGinKey)
}
