package entity

import "time"

// RateLimitEntry 单个标识在当前窗口内的计数
type RateLimitEntry struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// Expired 窗口是否已过期
func (e RateLimitEntry) Expired(now time.Time) bool {
	return !now.Before(e.ResetAt)
}
