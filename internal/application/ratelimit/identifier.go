package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// ResolveIdentifier 解析限流标识
// 优先级：已认证会话 > 反向代理转发 IP > 直连 IP > User-Agent + Accept-Language 的哈希
func ResolveIdentifier(r *http.Request, sessionID string) string {
	if sessionID != "" {
		return "session:" + sessionID
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return "ip:" + ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return "ip:" + ip
	}

	if host := peerIP(r.RemoteAddr); host != "" {
		return "ip:" + host
	}

	sum := sha256.Sum256([]byte(r.UserAgent() + "|" + r.Header.Get("Accept-Language")))
	return "anon:" + hex.EncodeToString(sum[:8])
}

func peerIP(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
