//go:build llama

package backend

// Link against libllama.so shipped next to the binary in ./bin.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
