package render

import "bytes"

func newTestBuf() *bytes.Buffer { return new(bytes.Buffer) }

func newTestReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
