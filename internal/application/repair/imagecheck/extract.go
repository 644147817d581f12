package imagecheck

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

var (
	urlRe  = regexp.MustCompile("https?://[^\\s\"'`()<>\\[\\]{}\\\\]+")
	altRe  = regexp.MustCompile(`alt=\{?["']([^"']+)["']`)
	wordRe = regexp.MustCompile(`[a-zA-Z]{3,}`)
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".avif": true, ".svg": true, ".bmp": true, ".ico": true,
}

// 常见图片 CDN，路径通常不带扩展名
var imageHosts = []string{
	"images.unsplash.com",
	"plus.unsplash.com",
	"images.pexels.com",
	"cdn.pixabay.com",
	"picsum.photos",
	"placehold.co",
	"res.cloudinary.com",
}

// 生成模型常见的虚构地址，不做网络探测
var hallucinatedHosts = []string{
	"example.com",
	"example.org",
	"example.net",
	"source.unsplash.com",
	"via.placeholder.com",
	"your-domain.com",
	"yourdomain.com",
}

var hallucinatedPaths = []string{
	"/path/to/",
	"your-image",
	"placeholder-image",
	"image-url",
}

// reference 去重后的图片引用
type reference struct {
	URL  string
	File string
}

// extract 按首次出现顺序提取去重后的图片地址
func extract(files []entity.GeneratedFile) []reference {
	seen := make(map[string]bool)
	var refs []reference
	for _, f := range files {
		for _, raw := range urlRe.FindAllString(f.Content, -1) {
			u := trimURL(raw)
			if seen[u] || !isImageURL(u) {
				continue
			}
			seen[u] = true
			refs = append(refs, reference{URL: u, File: f.Path})
		}
	}
	return refs
}

// trimURL 去掉地址后紧跟的标点
func trimURL(raw string) string {
	return strings.TrimRight(raw, ".,;:!")
}

// replaceURL 只替换与 target 完全相同的地址，同前缀的其他地址保持不变
func replaceURL(content, target, replacement string) (string, int) {
	n := 0
	out := urlRe.ReplaceAllStringFunc(content, func(m string) string {
		u := trimURL(m)
		if u != target {
			return m
		}
		n++
		return replacement + m[len(u):]
	})
	return out, n
}

func isImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if imageExts[strings.ToLower(path.Ext(u.Path))] {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range imageHosts {
		if host == h {
			return true
		}
	}
	return isHallucinated(raw) && strings.Contains(strings.ToLower(u.Path), "image")
}

func isHallucinated(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hallucinatedHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	p := strings.ToLower(u.Path)
	for _, frag := range hallucinatedPaths {
		if strings.Contains(p, frag) {
			return true
		}
	}
	return false
}

// keyword 为替换图片推断搜索词：优先取同一标签的 alt 文本，其次取文件名中的单词
func keyword(ref string, files []entity.GeneratedFile) string {
	for _, f := range files {
		idx := strings.Index(f.Content, ref)
		if idx < 0 {
			continue
		}
		start := strings.LastIndex(f.Content[:idx], "<")
		end := strings.Index(f.Content[idx:], ">")
		if start >= 0 && end >= 0 {
			if m := altRe.FindStringSubmatch(f.Content[start : idx+end]); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
		break
	}

	u, err := url.Parse(ref)
	if err == nil {
		name := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
		words := wordRe.FindAllString(name, 4)
		filtered := words[:0]
		for _, w := range words {
			if lw := strings.ToLower(w); lw != "photo" && lw != "image" && lw != "img" {
				filtered = append(filtered, lw)
			}
		}
		if len(filtered) > 0 {
			return strings.Join(filtered, " ")
		}
	}
	return "website background"
}
