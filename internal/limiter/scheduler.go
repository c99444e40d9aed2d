// Gói limiter cung cấp scheduler quản lý ngân sách request cho GitHub API.
// Mọi request ra ngoài đều phải đi qua Execute để không vượt quá quota:
// trước khi gọi sẽ chờ nếu ngân sách còn lại chạm ngưỡng an toàn, sau khi gọi
// sẽ cập nhật ngân sách từ các header X-RateLimit-* của response.

package limiter

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/pkg/log"
)

type Scheduler struct {
	Logger log.Logger
	Config *cfg.Config

	mu        sync.Mutex
	remaining int // -1 khi chưa biết
	resetAt   time.Time
	apiCalls  int64

	client *http.Client

	// Cho phép test thay thế đồng hồ và sleep
	sleep func(time.Duration)
	now   func() time.Time
}

func NewScheduler(logger log.Logger, config *cfg.Config) *Scheduler {
	timeout := time.Duration(config.GithubApi.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		Logger:    logger,
		Config:    config,
		remaining: -1,
		client:    &http.Client{Timeout: timeout},
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// ApiCalls trả về tổng số request đã thực hiện trong run này
func (s *Scheduler) ApiCalls() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiCalls
}

// Remaining trả về số request còn lại theo header gần nhất, -1 nếu chưa biết
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Execute thực hiện request qua scheduler. Đây là điểm nghẽn duy nhất của
// toàn bộ crawler: chờ ngân sách, retry với backoff khi lỗi tạm thời, chờ
// reset khi chạm rate limit. Lỗi 4xx khác trả về InvalidRequestError ngay.
func (s *Scheduler) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	s.waitForBudget(ctx)

	backoff := time.Duration(s.Config.GithubApi.BackoffBaseMs) * time.Millisecond
	if backoff <= 0 {
		backoff = time.Second
	}
	maxRetries := s.Config.GithubApi.MaxRetries
	attempts := 0

	for {
		resp, err := s.client.Do(req)
		s.countCall()

		// Lỗi mạng
		if err != nil {
			attempts++
			if attempts > maxRetries {
				return nil, &TransientFailureError{Attempts: attempts, Url: req.URL.String(), Err: err}
			}
			s.Logger.Warn(ctx, "Request failed (%v), retrying in %v", err, backoff)
			s.sleep(jitter(backoff))
			backoff *= 2
			continue
		}

		s.updateBudget(resp)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil

		case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
			waited, primary := s.waitRateLimit(ctx, resp)
			resp.Body.Close()
			if !waited {
				// 403 không phải do rate limit
				return nil, &InvalidRequestError{StatusCode: resp.StatusCode, Url: req.URL.String()}
			}
			if primary {
				// Hết quota chính: luôn retry sau khi chờ reset, không tính vào số lần retry
				continue
			}
			attempts++
			if attempts > maxRetries {
				return nil, &TransientFailureError{Attempts: attempts, Url: req.URL.String(), Err: statusError(resp.StatusCode)}
			}
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			attempts++
			if attempts > maxRetries {
				return nil, &TransientFailureError{Attempts: attempts, Url: req.URL.String(), Err: statusError(resp.StatusCode)}
			}
			s.Logger.Warn(ctx, "Server error %d, retrying in %v", resp.StatusCode, backoff)
			s.sleep(jitter(backoff))
			backoff *= 2
			continue

		default:
			resp.Body.Close()
			return nil, &InvalidRequestError{StatusCode: resp.StatusCode, Url: req.URL.String()}
		}
	}
}

// waitForBudget chặn request tiếp theo nếu ngân sách chạm ngưỡng an toàn.
// Khi throttle tắt thì request đi thẳng, kể cả khi remaining đã cạn.
func (s *Scheduler) waitForBudget(ctx context.Context) {
	if !s.Config.Crawler.Throttle {
		return
	}

	s.mu.Lock()
	remaining := s.remaining
	resetAt := s.resetAt
	s.mu.Unlock()

	if remaining < 0 || remaining > s.Config.GithubApi.SafetyMargin {
		return
	}

	wait := resetAt.Sub(s.now())
	if wait <= 0 {
		return
	}

	s.Logger.Warn(ctx, "Rate budget low (remaining=%d), waiting %v until reset at %s",
		remaining, wait.Round(time.Second), resetAt.Format(time.RFC3339))
	s.sleep(wait)

	s.mu.Lock()
	s.remaining = -1
	s.mu.Unlock()
}

// updateBudget đọc các header rate limit của GitHub nếu có
func (s *Scheduler) updateBudget(resp *http.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.remaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.resetAt = time.Unix(ts, 0)
		}
	}
}

// waitRateLimit xử lý response 403/429. Trả về (đã chờ hay chưa, có phải
// hết quota chính hay không). Hết quota chính: remaining = 0, chờ tới reset.
// Secondary limit: có Retry-After, chờ theo server gợi ý.
func (s *Scheduler) waitRateLimit(ctx context.Context, resp *http.Response) (bool, bool) {
	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		wait := s.resetWait(resp)
		s.Logger.Warn(ctx, "Rate limit hit! Waiting %v to continue", wait.Round(time.Second))
		s.sleep(wait)
		s.mu.Lock()
		s.remaining = -1
		s.mu.Unlock()
		return true, true
	}

	if v := resp.Header.Get("Retry-After"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			seconds = 60
		}
		wait := time.Duration(seconds) * time.Second
		s.Logger.Warn(ctx, "Secondary rate limit hit! Waiting %v as suggested by server", wait)
		s.sleep(wait)
		return true, false
	}

	return false, false
}

func (s *Scheduler) resetWait(resp *http.Response) time.Duration {
	fallback := time.Duration(s.Config.GithubApi.RateLimitResetMin) * time.Minute
	v := resp.Header.Get("X-RateLimit-Reset")
	if v == "" {
		return fallback
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	wait := time.Unix(ts, 0).Sub(s.now())
	if wait <= 0 {
		return fallback
	}
	return wait
}

func (s *Scheduler) countCall() {
	s.mu.Lock()
	s.apiCalls++
	s.mu.Unlock()
}

// jitter cộng thêm tối đa 25% ngẫu nhiên để các lần retry không dồn cục
func jitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

type statusError int

func (e statusError) Error() string {
	return "server returned status " + strconv.Itoa(int(e))
}
