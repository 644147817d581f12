package utils

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONObject 文本中没有可解析的 JSON 对象
var ErrNoJSONObject = errors.New("no json object found")

// ExtractJSONObject 从模型输出中提取第一个完整的 JSON 对象
// 兼容 ```json 代码块以及对象前后的说明文字
func ExtractJSONObject(s string) (json.RawMessage, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	for start := strings.Index(raw, "{"); start >= 0; {
		dec := json.NewDecoder(strings.NewReader(raw[start:]))
		dec.UseNumber()
		var obj json.RawMessage
		if err := dec.Decode(&obj); err == nil {
			return obj, nil
		}
		next := strings.Index(raw[start+1:], "{")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, ErrNoJSONObject
}
