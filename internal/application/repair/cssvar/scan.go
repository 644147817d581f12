package cssvar

import "strings"

// blankComments 将注释内容替换为空格，字节位置保持不变
func blankComments(line string, inComment bool) (string, bool) {
	if !inComment && !strings.Contains(line, "/*") {
		return line, false
	}

	b := []byte(line)
	for i := 0; i < len(b); i++ {
		if inComment {
			if b[i] == '*' && i+1 < len(b) && b[i+1] == '/' {
				b[i], b[i+1] = ' ', ' '
				i++
				inComment = false
				continue
			}
			b[i] = ' '
			continue
		}
		if b[i] == '/' && i+1 < len(b) && b[i+1] == '*' {
			b[i], b[i+1] = ' ', ' '
			i++
			inComment = true
		}
	}
	return string(b), inComment
}

// braceDelta 返回一行中 { 与 } 的数量差
func braceDelta(code string) int {
	return strings.Count(code, "{") - strings.Count(code, "}")
}

// lineEdit 同时编辑去注释副本与原文，两者长度始终一致
type lineEdit struct {
	code string
	text string
}

func (e *lineEdit) splice(start, end int, repl string) {
	e.code = e.code[:start] + repl + e.code[end:]
	e.text = e.text[:start] + repl + e.text[end:]
}

// unclosedAt 从 var( 的起点扫描到声明结束，返回插入位置与未闭合层数
func unclosedAt(code string, start int) (insertAt, depth int) {
	end := len(strings.TrimRight(code, " \t"))
	if i := strings.IndexAny(code[start:], ";}"); i >= 0 {
		end = start + i
	}
	for i := start; i < end; i++ {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, 0
			}
		}
	}
	for end > start && (code[end-1] == ' ' || code[end-1] == '\t') {
		end--
	}
	return end, depth
}
