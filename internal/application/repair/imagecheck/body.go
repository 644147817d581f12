package imagecheck

import (
	"context"
	"io"
)

// cancelBody 关闭响应体时释放探测超时
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
