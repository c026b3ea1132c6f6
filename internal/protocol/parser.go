package protocol

import (
	"bufio"
	"io"
	"math"
	"strings"
)

// MaxTokenLen bounds how much of a single token is kept. Longer tokens are
// still consumed, only their tail is dropped.
const MaxTokenLen = 64

// Transport is the byte stream requests arrive on and responses leave by.
type Transport interface {
	io.Reader
	io.Writer
	// Available reports how many bytes can be read without blocking.
	Available() (int, error)
}

// Parser splits requests into tokens. A request is NAME[|arg...] ended by a
// newline (optionally preceded by '\r'), or by a trailing '|' with nothing
// after it yet. Once a token has started, reads block until its delimiter
// arrives.
//
// Errors from the transport are sticky: once one occurs every read returns a
// zero value and Err reports it.
type Parser struct {
	t     Transport
	r     *bufio.Reader
	ended bool
	err   error
}

func NewParser(t Transport) *Parser {
	return &Parser{t: t, r: bufio.NewReader(t), ended: true}
}

// Available counts bytes already buffered plus bytes pending on the transport.
func (p *Parser) Available() (int, error) {
	n, err := p.t.Available()
	return p.r.Buffered() + n, err
}

// Next starts a new request and returns its command name. Stray line
// terminators left by the previous request are skipped without blocking; ok is
// false when nothing but terminators was pending.
func (p *Parser) Next() (name string, ok bool, err error) {
	p.ended = false
	p.err = nil
	for {
		n, err := p.Available()
		if err != nil {
			return "", false, err
		}
		if n == 0 {
			p.ended = true
			return "", false, nil
		}
		b, err := p.r.ReadByte()
		if err != nil {
			return "", false, err
		}
		if b != '\r' && b != '\n' {
			_ = p.r.UnreadByte()
			break
		}
	}
	name = p.Arg()
	return name, true, p.err
}

// Arg reads the next token up to '|' or the end of the line. It returns "" once
// the line has ended.
func (p *Parser) Arg() string {
	if p.ended || p.err != nil || !p.tokenPending() {
		return ""
	}
	var tok []byte
	for {
		b, ok := p.readByte()
		if !ok || b == ArgSeparator {
			break
		}
		if b == '\n' {
			p.ended = true
			break
		}
		if len(tok) < MaxTokenLen {
			tok = append(tok, b)
		}
	}
	return strings.TrimSuffix(string(tok), "\r")
}

// Int reads the next token as a base-10 integer. It is deliberately lenient:
// leading blanks are skipped, the number stops at the first non-digit and the
// rest of the token is discarded, and a token that does not start with a
// number reads as 0 rather than failing. Values saturate at the int64 range.
func (p *Parser) Int() int64 {
	if p.ended || p.err != nil || !p.tokenPending() {
		return 0
	}
	var (
		v      int64
		neg    bool
		digits bool
		sign   bool
	)
	for {
		b, ok := p.readByte()
		if !ok {
			return 0
		}
		switch {
		case (b == ' ' || b == '\t') && !digits && !sign:
			continue
		case b == '-' && !digits && !sign:
			sign, neg = true, true
			continue
		case b >= '0' && b <= '9':
			digits = true
			d := int64(b - '0')
			if v > (math.MaxInt64-d)/10 {
				v = math.MaxInt64
			} else {
				v = v*10 + d
			}
			continue
		}
		p.endToken(b)
		break
	}
	if neg {
		return -v
	}
	return v
}

// tokenPending reports whether the next token has started to arrive. With
// nothing available the request is over: "NAME|" sent without a newline must
// not swallow the following request as its argument.
func (p *Parser) tokenPending() bool {
	n, err := p.Available()
	if err != nil {
		p.err = err
		p.ended = true
		return false
	}
	if n == 0 {
		p.ended = true
		return false
	}
	return true
}

// endToken consumes the remainder of the token that b belongs to.
func (p *Parser) endToken(b byte) {
	for {
		if b == ArgSeparator {
			return
		}
		if b == '\n' {
			p.ended = true
			return
		}
		var ok bool
		if b, ok = p.readByte(); !ok {
			return
		}
	}
}

// Flush drops what is left of the current request line. Only bytes that have
// already arrived are read, so a following request is never consumed.
func (p *Parser) Flush() error {
	for !p.ended && p.err == nil {
		n, err := p.Available()
		if err != nil {
			p.err = err
			break
		}
		if n == 0 {
			break
		}
		if b, ok := p.readByte(); ok && b == '\n' {
			p.ended = true
		}
	}
	return p.err
}

// Err reports the first transport error seen since the last Next.
func (p *Parser) Err() error {
	return p.err
}

func (p *Parser) readByte() (byte, bool) {
	b, err := p.r.ReadByte()
	if err != nil {
		p.err = err
		p.ended = true
		return 0, false
	}
	return b, true
}
