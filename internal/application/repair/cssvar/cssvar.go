// Package cssvar 检查并修复样式表中的自定义属性缺陷
//
// 逐行单遍扫描五类问题：空值声明、未闭合的 var() 引用、引用写成赋值语法、
// 缺少分号的声明（通过下一非空行推断）、名称不以 -- 开头的 @property 规则。
// 前四类替换单行；@property 需删除整个块，块范围通过花括号深度确定。
// 修复按行号从大到小应用，多行删除不会影响上方尚未应用的行号。
package cssvar

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

var (
	emptyValueRe   = regexp.MustCompile(`(--[\w-]+)\s*:\s*;`)
	assignRefRe    = regexp.MustCompile(`var\(\s*(--[\w-]+)\s*:`)
	bareRefRe      = regexp.MustCompile(`(^\s*|[;{]\s*)([a-zA-Z][\w-]*)\s*:\s*(--[\w-]+)\s*(;|}|$)`)
	declarationRe  = regexp.MustCompile(`^(--[\w-]+|[a-zA-Z][\w-]*)\s*:\s*\S`)
	declStartRe    = regexp.MustCompile(`^(--[\w-]+|[a-zA-Z][\w-]*)\s*:`)
	propertyRuleRe = regexp.MustCompile(`^\s*@property\s+([^\s{;]+)`)
)

// Validate 扫描样式表，返回按出现顺序排列的问题
func Validate(css string) []entity.StyleIssue {
	lines := strings.Split(css, "\n")
	codes := make([]string, len(lines))
	inComment := false
	for i, line := range lines {
		codes[i], inComment = blankComments(strings.TrimRight(line, "\r"), inComment)
	}

	var issues []entity.StyleIssue
	depth := 0

	// 待删除块的状态
	removing := false
	removeStart, removeDepth, removeOpened := 0, 0, false
	var removeIssue entity.StyleIssue

	for i, code := range codes {
		lineNo := i + 1

		if !removing {
			if m := propertyRuleRe.FindStringSubmatchIndex(code); m != nil {
				name := code[m[2]:m[3]]
				if !strings.HasPrefix(name, "--") {
					removing = true
					removeStart, removeDepth, removeOpened = lineNo, 0, false
					removeIssue = entity.StyleIssue{
						Kind:       entity.StyleInvalidAtRule,
						Line:       lineNo,
						Column:     column(code, m[0]+countIndent(code[m[0]:])),
						Text:       strings.TrimSpace(code[m[0]:m[3]]),
						Suggestion: "remove @property block; custom property names must start with --",
						Severity:   entity.SeverityError,
						Action:     entity.StyleActionRemoveBlock,
					}
				}
			}
		}

		if removing {
			// 在 { 之前出现 ; 说明规则没有块体，只删这一行
			if !removeOpened && endsBeforeBlock(code) {
				removeIssue.RemoveRange = &entity.LineRange{StartLine: removeStart, EndLine: lineNo}
				issues = append(issues, removeIssue)
				removing = false
				continue
			}
			removeDepth += braceDelta(code)
			if strings.Contains(code, "{") {
				removeOpened = true
			}
			if removeOpened && removeDepth <= 0 {
				removeIssue.RemoveRange = &entity.LineRange{StartLine: removeStart, EndLine: lineNo}
				issues = append(issues, removeIssue)
				removing = false
			}
			continue
		}

		issues = append(issues, checkLine(lines[i], code, lineNo, depth, nextCode(codes, i))...)
		depth += braceDelta(code)
		if depth < 0 {
			depth = 0
		}
	}

	if removing {
		removeIssue.RemoveRange = &entity.LineRange{StartLine: removeStart, EndLine: len(lines)}
		issues = append(issues, removeIssue)
	}
	return issues
}

func endsBeforeBlock(code string) bool {
	semi := strings.Index(code, ";")
	if semi < 0 {
		return false
	}
	brace := strings.Index(code, "{")
	return brace < 0 || semi < brace
}

// checkLine 检查单行，同一行的多个问题按顺序叠加修复，Suggestion 为修复后的整行
func checkLine(raw, code string, lineNo, depth int, next string) []entity.StyleIssue {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	cr := ""
	text := raw
	if strings.HasSuffix(text, "\r") {
		text, cr = strings.TrimSuffix(text, "\r"), "\r"
	}
	e := &lineEdit{code: code, text: text}

	var issues []entity.StyleIssue
	add := func(kind entity.StyleIssueKind, sev entity.Severity, pos int, offending string) {
		issues = append(issues, entity.StyleIssue{
			Kind:       kind,
			Line:       lineNo,
			Column:     column(e.code, pos),
			Text:       offending,
			Suggestion: e.text + cr,
			Severity:   sev,
			Action:     entity.StyleActionReplaceLine,
		})
	}

	// 空值
	for {
		m := emptyValueRe.FindStringSubmatchIndex(e.code)
		if m == nil {
			break
		}
		offending := e.text[m[0]:m[1]]
		e.splice(m[0], m[1], e.code[m[2]:m[3]]+": initial;")
		add(entity.StyleEmptyValue, entity.SeverityWarning, m[0], offending)
	}

	// 赋值语法：var(--x: y) 与 color: --x
	for {
		m := assignRefRe.FindStringSubmatchIndex(e.code)
		if m == nil {
			break
		}
		offending := e.text[m[0]:m[1]]
		e.splice(m[0], m[1], "var("+e.code[m[2]:m[3]]+",")
		add(entity.StyleInvalidSyntax, entity.SeverityError, m[0], offending)
	}
	for {
		m := bareRefRe.FindStringSubmatchIndex(e.code)
		if m == nil {
			break
		}
		offending := e.text[m[6]:m[7]]
		ref := e.code[m[6]:m[7]]
		e.splice(m[6], m[7], "var("+ref+")")
		add(entity.StyleInvalidSyntax, entity.SeverityError, m[6], offending)
	}

	// 未闭合引用
	for from := 0; ; {
		idx := strings.Index(e.code[from:], "var(")
		if idx < 0 {
			break
		}
		start := from + idx
		insertAt, open := unclosedAt(e.code, start)
		if open > 0 {
			offending := strings.TrimSpace(e.text[start:insertAt])
			e.splice(insertAt, insertAt, strings.Repeat(")", open))
			add(entity.StyleUnclosedReference, entity.SeverityError, start, offending)
			insertAt += open
		}
		from = max(insertAt, start+len("var("))
	}

	// 缺少分号
	if depth > 0 && missingTerminator(e.code, next) {
		trimmed := strings.TrimRight(e.code, " \t")
		offending := strings.TrimSpace(e.text)
		e.splice(len(trimmed), len(trimmed), ";")
		add(entity.StyleMissingTerminator, entity.SeverityError, len(trimmed), offending)
	}

	return issues
}

func missingTerminator(code, next string) bool {
	line := strings.TrimSpace(code)
	if !declarationRe.MatchString(line) || strings.ContainsAny(line, "{}") {
		return false
	}
	switch line[len(line)-1] {
	case ';', ',', '(', '{', '}':
		return false
	}

	next = strings.TrimSpace(next)
	if next == "" || strings.HasSuffix(next, "{") || strings.HasSuffix(next, ",") {
		return false
	}
	return declStartRe.MatchString(next)
}

// nextCode 下一非空行（已去注释）
func nextCode(codes []string, i int) string {
	for j := i + 1; j < len(codes); j++ {
		if strings.TrimSpace(codes[j]) != "" {
			return codes[j]
		}
	}
	return ""
}

// column 字节偏移转为从 1 开始的字符列号
func column(s string, pos int) int {
	return utf8.RuneCountInString(s[:pos]) + 1
}

func countIndent(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// Fix 自下而上应用修复，返回修复后的文本与实际应用的问题
func Fix(css string, issues []entity.StyleIssue) (string, []entity.StyleIssue) {
	if len(issues) == 0 {
		return css, nil
	}

	ordered := make([]entity.StyleIssue, len(issues))
	copy(ordered, issues)
	// 行号降序；同一行保留最后一个问题，其 Suggestion 已包含前面的修复
	sort.SliceStable(ordered, func(a, b int) bool {
		return anchor(ordered[a]) > anchor(ordered[b])
	})

	lines := strings.Split(css, "\n")
	var applied []entity.StyleIssue
	done := make(map[int]bool)

	for idx, issue := range ordered {
		switch issue.Action {
		case entity.StyleActionRemoveBlock:
			r := issue.RemoveRange
			if r == nil || r.StartLine < 1 || r.EndLine > len(lines) || r.StartLine > r.EndLine {
				continue
			}
			lines = append(lines[:r.StartLine-1], lines[r.EndLine:]...)
			applied = append(applied, issue)

		case entity.StyleActionReplaceLine:
			if done[issue.Line] || issue.Line < 1 || issue.Line > len(lines) {
				continue
			}
			last := lastOnLine(ordered, idx)
			lines[issue.Line-1] = last.Suggestion
			done[issue.Line] = true
			for _, same := range ordered[idx:] {
				if same.Line == issue.Line && same.Action == entity.StyleActionReplaceLine {
					applied = append(applied, same)
				}
			}
		}
	}

	sort.SliceStable(applied, func(a, b int) bool { return applied[a].Line < applied[b].Line })
	return strings.Join(lines, "\n"), applied
}

func anchor(issue entity.StyleIssue) int {
	if issue.RemoveRange != nil {
		return issue.RemoveRange.StartLine
	}
	return issue.Line
}

// lastOnLine 返回与 ordered[idx] 同行的最后一个替换问题
func lastOnLine(ordered []entity.StyleIssue, idx int) entity.StyleIssue {
	last := ordered[idx]
	for _, other := range ordered[idx+1:] {
		if other.Line != last.Line {
			break
		}
		if other.Action == entity.StyleActionReplaceLine {
			last = other
		}
	}
	return last
}

// Repair 检查并修复
func Repair(css string) (string, []entity.StyleIssue) {
	return Fix(css, Validate(css))
}

// Applies 是否为需要检查的样式文件
func Applies(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".css") || strings.HasSuffix(lower, ".scss")
}
