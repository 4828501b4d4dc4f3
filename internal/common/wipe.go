package common

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Used to remove sensitive data such as master passwords and
// session keys from memory after use. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
