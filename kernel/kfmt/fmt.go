// Package kfmt implements the kernel's allocation-free formatted output. It is
// the only logging channel available to interrupt handlers and early boot
// code.
package kfmt

import (
	"io"
	"unsafe"
)

const (
	// maxBufSize defines the buffer size for formatting numbers.
	maxBufSize = 32

	hexDigits = "0123456789abcdef"
)

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	numFmtBuf = []byte("012345678901234567890123456789012")

	// singleByte is used as a shared buffer for passing single characters
	// to doWrite.
	singleByte = []byte(" ")

	// unprintableChar replaces runes that the text console cannot render.
	unprintableChar = byte('?')

	// earlyPrintBuffer is a ring buffer that stores Printf output before the
	// console and TTYs are initialized.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and flushes
// any output accumulated in the early print buffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the io.Writer that Printf currently writes to. If no
// sink has been set, GetOutputSink returns a writer for the early print
// buffer.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyPrintBuffer
	}

	return outputSink
}

// Printf provides a minimal Printf implementation that can be safely used
// before the Go runtime has been properly initialized. This implementation
// does not allocate any memory.
//
// Similar to fmt.Printf, this version of printf supports the following subset
// of formatting verbs:
//
// Strings:
//		%s the uninterpreted bytes of the string or byte slice
//
// Integers:
//              %o base 8
//              %d base 10
//              %x base 16, with lower-case letters for a-f
//
// Characters:
//              %c the character represented by a rune or byte value. Runes
//                 outside the 7-bit ASCII range are printed as '?'
//
// Booleans:
//              %t "true" or "false"
//
// Width is specified by an optional decimal number immediately preceding the verb.
// If absent, the width is whatever is necessary to represent the value.
//
// String values with length less than the specified width will be left-padded with
// spaces. Integer values formatted as base-10 will also be left-padded with spaces.
// Finally, integer values formatted as base-16 will be left-padded with zeroes.
//
// Printf supports all built-in string and integer types. Arguments of any
// other type are reported as %!(WRONGTYPE); io.Stringer is never consulted
// as interrupt handlers may call Printf before the Go itables are usable.
//
// This function does not provide support for printing pointers (%p) as this
// requires importing the reflect package. By importing reflect, the go compiler
// starts generating calls to runtime.convT2E (which calls runtime.newobject)
// when assembling the argument slice which obviously will crash the kernel since
// memory management is not yet available.
//
// The output of Printf is written to the sink registered via SetOutputSink.
// Until a sink is registered, output is kept in a ring buffer and flushed to
// the sink once it becomes available.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var argIndex, litStart, i int

	for i < len(format) {
		if format[i] != '%' {
			i++
			continue
		}

		writeLiteral(w, format, litStart, i)
		i = fmtDirective(w, format, i+1, args, &argIndex)
		litStart = i
	}
	writeLiteral(w, format, litStart, len(format))

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

// fmtDirective parses the width and verb that start at format[i] and prints
// the next argument accordingly. It returns the index of the first byte past
// the directive.
func fmtDirective(w io.Writer, format string, i int, args []interface{}, argIndex *int) int {
	padLen := 0
	for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
		padLen = padLen*10 + int(format[i]-'0')
	}

	if i == len(format) {
		doWrite(w, errNoVerb)
		return i
	}

	verb := format[i]
	switch verb {
	case '%':
		singleByte[0] = '%'
		doWrite(w, singleByte)
		return i + 1
	case 'o', 'd', 'x', 's', 't', 'c':
	default:
		doWrite(w, errNoVerb)
		return i + 1
	}

	if *argIndex >= len(args) {
		doWrite(w, errMissingArg)
		return i + 1
	}

	arg := args[*argIndex]
	*argIndex++

	switch verb {
	case 'o':
		fmtInt(w, arg, 8, padLen)
	case 'd':
		fmtInt(w, arg, 10, padLen)
	case 'x':
		fmtInt(w, arg, 16, padLen)
	case 's':
		fmtString(w, arg, padLen)
	case 't':
		fmtBool(w, arg)
	case 'c':
		fmtChar(w, arg, padLen)
	}

	return i + 1
}

// writeLiteral copies format[start:end] to w. Passing a string slice to
// doWrite would allocate so the bytes are written one at a time.
func writeLiteral(w io.Writer, format string, start, end int) {
	for ; start < end; start++ {
		singleByte[0] = format[start]
		doWrite(w, singleByte)
	}
}

// fmtChar prints the character encoded by a rune or byte value v, applying
// the padding specified by padLen.
func fmtChar(w io.Writer, v interface{}, padLen int) {
	var ch byte

	switch castedVal := v.(type) {
	case rune:
		if castedVal < 0 || castedVal > 0x7f {
			ch = unprintableChar
		} else {
			ch = byte(castedVal)
		}
	case byte:
		ch = castedVal
	default:
		doWrite(w, errWrongArgType)
		return
	}

	fmtRepeat(w, ' ', padLen-1)
	singleByte[0] = ch
	doWrite(w, singleByte)
}

// fmtBool prints a formatted version of boolean value v.
func fmtBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case bVal:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// fmtString prints a formatted version of string or []byte value v, applying
// the padding specified by padLen.
func fmtString(w io.Writer, v interface{}, padLen int) {
	switch castedVal := v.(type) {
	case string:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		writeLiteral(w, castedVal, 0, len(castedVal))
	case []byte:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		doWrite(w, castedVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtRepeat writes count bytes with value ch.
func fmtRepeat(w io.Writer, ch byte, count int) {
	singleByte[0] = ch
	for i := 0; i < count; i++ {
		doWrite(w, singleByte)
	}
}

// intArg returns the magnitude and sign of integer value v. The ok result is
// false if v is not a built-in integer type.
func intArg(v interface{}) (mag uint64, neg, ok bool) {
	switch t := v.(type) {
	case uint8:
		return uint64(t), false, true
	case uint16:
		return uint64(t), false, true
	case uint32:
		return uint64(t), false, true
	case uint64:
		return t, false, true
	case uint:
		return uint64(t), false, true
	case uintptr:
		return uint64(t), false, true
	case int8:
		return signedArg(int64(t))
	case int16:
		return signedArg(int64(t))
	case int32:
		return signedArg(int64(t))
	case int64:
		return signedArg(t)
	case int:
		return signedArg(int64(t))
	}

	return 0, false, false
}

func signedArg(v int64) (uint64, bool, bool) {
	if v < 0 {
		return uint64(-v), true, true
	}
	return uint64(v), false, true
}

// fmtInt prints out a formatted version of v in the requested base, applying
// the padding specified by padLen. Base-10 values are padded with spaces and
// the sign replaces the blank closest to the digits; other bases are padded
// with zeroes.
func fmtInt(w io.Writer, v interface{}, base, padLen int) {
	mag, neg, ok := intArg(v)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}

	if padLen >= maxBufSize {
		padLen = maxBufSize - 1
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	// Digits are emitted least significant first and reversed at the end
	n := 0
	for {
		numFmtBuf[n] = hexDigits[mag%uint64(base)]
		n++
		if mag /= uint64(base); mag == 0 || n == maxBufSize {
			break
		}
	}

	for ; n < padLen; n++ {
		numFmtBuf[n] = padCh
	}

	if neg {
		sign := n
		for sign > 0 && numFmtBuf[sign-1] == ' ' {
			sign--
		}
		if sign == n {
			n++
		}
		numFmtBuf[sign] = '-'
	}

	for l, r := 0, n-1; l < r; l, r = l+1, r-1 {
		numFmtBuf[l], numFmtBuf[r] = numFmtBuf[r], numFmtBuf[l]
	}

	doWrite(w, numFmtBuf[:n])
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without this hack, the compiler cannot properly
// detect that p does not escape (due to the call to the yet unknown outputSink
// io.Writer) and plays it safe by flagging it as escaping. This causes all
// calls to Printf to call runtime.convT2E which triggers a memory allocation
// causing the kernel to crash if a call to Printf is made before the Go
// allocator is initialized.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
