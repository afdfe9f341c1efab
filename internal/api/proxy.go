package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RPCProxy forwards JSON-RPC requests from the browser to the upstream chain
// endpoint. Redirects are never followed: the upstream answering with a
// redirect instead of a result is a failure, not a detour to take.
type RPCProxy struct {
	upstream string
	client   *http.Client
	logger   *zap.Logger
}

func NewRPCProxy(upstream string, logger *zap.Logger) *RPCProxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCProxy{
		upstream: upstream,
		logger:   logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Handle relays one JSON-RPC request body verbatim.
func (p *RPCProxy) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, p.upstream, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rpc proxy error"})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("rpc upstream unreachable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "rpc proxy error"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn("rpc upstream failure",
			zap.Int("status", resp.StatusCode),
			zap.String("upstream", p.upstream),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "rpc request failed", "status": resp.StatusCode})
		return
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "rpc proxy error"})
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}
