// Package unescape 将生成文本中被字面输出的 \uXXXX 转义还原为字符
//
// 只有前导反斜杠数为奇数时（即 \u 本身未被转义）才解码；偶数个反斜杠表示有意转义，原样保留。
// 解码结果为反斜杠的序列不解码，保证 Normalize(Normalize(x)) == Normalize(x)。
package unescape

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Normalize 解码未转义的 \uXXXX 序列
func Normalize(s string) string {
	out, _ := normalize(s)
	return out
}

// Count 返回 Normalize 会解码的序列数
func Count(s string) int {
	_, n := normalize(s)
	return n
}

// Changed Normalize 是否会修改 s
func Changed(s string) bool {
	return Count(s) > 0
}

func normalize(s string) (string, int) {
	if !strings.Contains(s, `\u`) {
		return s, 0
	}

	var b strings.Builder
	b.Grow(len(s))
	decoded := 0
	slashes := 0

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			slashes = 0
			b.WriteByte(c)
			i++
			continue
		}

		// 奇数个反斜杠时当前反斜杠是转义符
		if slashes%2 == 0 {
			if r, width, ok := decodeAt(s, i); ok {
				b.WriteRune(r)
				decoded++
				i += width
				slashes = 0
				continue
			}
		}
		slashes++
		b.WriteByte(c)
		i++
	}
	return b.String(), decoded
}

// decodeAt 尝试从 s[i] 处解码一个 \uXXXX（含代理对），返回字符与消耗的字节数
func decodeAt(s string, i int) (rune, int, bool) {
	hi, ok := hex4(s, i)
	if !ok {
		return 0, 0, false
	}

	r := rune(hi)
	width := 6
	if utf16.IsSurrogate(r) {
		lo, ok := hex4(s, i+6)
		if !ok || hi >= 0xDC00 {
			return 0, 0, false
		}
		r = utf16.DecodeRune(r, rune(lo))
		if r == utf8.RuneError {
			return 0, 0, false
		}
		width = 12
	}

	if r == '\\' || !utf8.ValidRune(r) {
		return 0, 0, false
	}
	return r, width, true
}

func hex4(s string, i int) (uint16, bool) {
	if i+6 > len(s) || s[i] != '\\' || s[i+1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(s[i+2:i+6], 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}
