// Package secure reduces the in-memory exposure window of shared secrets.
//
// Go's garbage collector can move and duplicate data, so zeroing cannot
// guarantee a secret is gone from memory; it only shrinks the window in
// which it is readable. Keep secrets in []byte form and zero them as soon
// as they are committed to the credential store or abandoned.
package secure

import "runtime"

// ZeroBytes overwrites data with zeros in a way the compiler will not
// optimize away.
func ZeroBytes(data []byte) {
	if len(data) == 0 {
		return
	}
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}

// Zero zeroes multiple byte slices at once.
func Zero(slices ...[]byte) {
	for _, b := range slices {
		ZeroBytes(b)
	}
}
