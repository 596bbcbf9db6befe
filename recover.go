package linkz

// recoverToReject converts a panic into a reject, keeping the fault inside
// the component that raised it. Deferred at every Process boundary.
func recoverToReject(ok *bool) {
	if r := recover(); r != nil {
		*ok = false
	}
}
