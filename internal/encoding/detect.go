package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// peekSize bounds how much of the input is sampled for detection.
const peekSize = 4096

// big5Confidence is the minimum chardet confidence for trusting a Big5 guess.
// GBK text is frequently misreported as Big5 at low confidence.
const big5Confidence = 80

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader detects the encoding of the input and returns a reader
// that decodes the content to UTF-8.
//
// Detection order:
//  1. Check for BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Validate if the sampled content is valid UTF-8 and return as-is
//  3. Heuristic detection via chardet
//  4. Fallback to GB18030, the superset used by domestic bill exports
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, peekSize)

	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if bytes.HasPrefix(buf, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	}

	if bytes.HasPrefix(buf, bomUTF16LE) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), nil
	}

	if bytes.HasPrefix(buf, bomUTF16BE) {
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), nil
	}

	if validUTF8Prefix(buf, len(buf) == peekSize) {
		return br, nil
	}

	detector := chardet.NewTextDetector()

	result, detectErr := detector.DetectBest(buf)
	if detectErr == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "GB-18030":
			return transform.NewReader(br, simplifiedchinese.GB18030.NewDecoder()), nil
		case "Big5":
			if result.Confidence >= big5Confidence {
				return transform.NewReader(br, traditionalchinese.Big5.NewDecoder()), nil
			}
		}
	}

	return transform.NewReader(br, simplifiedchinese.GB18030.NewDecoder()), nil
}

// validUTF8Prefix reports whether buf is valid UTF-8. When the sample was cut at
// the peek boundary, a multi-byte rune split across it is tolerated.
func validUTF8Prefix(buf []byte, truncated bool) bool {
	if utf8.Valid(buf) {
		return true
	}

	if !truncated {
		return false
	}

	for cut := 1; cut < utf8.UTFMax && cut <= len(buf); cut++ {
		head := buf[:len(buf)-cut]
		if utf8.Valid(head) && !utf8.FullRune(buf[len(buf)-cut:]) {
			return true
		}
	}

	return false
}
