package mcp

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/zx06/pwclip/internal/errors"
	"github.com/zx06/pwclip/internal/log"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable_http"
)

const (
	authHeader    = "Authorization"
	bearerPrefix  = "Bearer "
	unauthorized  = "unauthorized"
	headerMissing = "authorization header is required"
	tooManyFails  = "too many failed authentication attempts"

	requestIDHeader = "X-Request-Id"
)

// 认证失败的默认限速：每 10 秒恢复一次机会，最多连续失败 5 次。
const (
	defaultFailureEvery = 10 * time.Second
	defaultFailureBurst = 5
)

// HTTPOptions 配置 streamable HTTP transport。
type HTTPOptions struct {
	AuthToken string       // 必填
	Logger    *slog.Logger // 记录被拒绝的请求，nil 则丢弃

	// 认证失败限速；零值使用默认值。额度耗尽后所有请求返回 429，直到额度恢复。
	FailureEvery time.Duration
	FailureBurst int
}

// NewStreamableHTTPHandler creates a streamable HTTP handler with required bearer auth.
func NewStreamableHTTPHandler(server *mcp.Server, opts HTTPOptions) (http.Handler, error) {
	if server == nil {
		return nil, errors.New(errors.CodeInternal, "mcp server is nil", nil)
	}
	if opts.AuthToken == "" {
		return nil, errors.New(errors.CodeCfgInvalid, "mcp streamable http auth token is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	every, burst := opts.FailureEvery, opts.FailureBurst
	if every <= 0 {
		every = defaultFailureEvery
	}
	if burst <= 0 {
		burst = defaultFailureBurst
	}
	return requireAuth(handler, opts.AuthToken, rate.NewLimiter(rate.Every(every), burst), logger), nil
}

// requireAuth 校验 bearer token；失败次数由 failures 限速，防止暴力猜测。
func requireAuth(next http.Handler, token string, failures *rate.Limiter, logger *slog.Logger) http.Handler {
	reject := func(w http.ResponseWriter, req *http.Request, msg string) {
		failures.Allow()
		id := uuid.NewString()
		w.Header().Set(requestIDHeader, id)
		logger.Warn("mcp http request rejected", "request_id", id, "remote", req.RemoteAddr, "reason", msg)
		http.Error(w, msg, http.StatusUnauthorized)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if failures.Tokens() < 1 {
			logger.Warn("mcp http request throttled", "remote", req.RemoteAddr)
			http.Error(w, tooManyFails, http.StatusTooManyRequests)
			return
		}
		auth := strings.TrimSpace(req.Header.Get(authHeader))
		if auth == "" {
			reject(w, req, headerMissing)
			return
		}
		if !strings.HasPrefix(auth, bearerPrefix) {
			reject(w, req, unauthorized)
			return
		}
		received := strings.TrimPrefix(auth, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(received), []byte(token)) != 1 {
			reject(w, req, unauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// IsLoopbackAddr 报告监听地址是否只绑定本机回环接口。
// 主机名只接受 localhost；空主机（":8788"）表示所有接口。
func IsLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
