package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logging "github.com/pyra-labs/logger"
)

type sentMail struct {
	Subject   string
	Body      string
	Recipient string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(subject, body, recipient string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{Subject: subject, Body: body, Recipient: recipient})
	return nil
}

func (f *fakeMailer) all() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}

func newTestLogger(t *testing.T) (*logging.Logger, *fakeMailer) {
	t.Helper()

	mailer := &fakeMailer{}
	l, err := logging.NewWithMailer(&logging.Config{Name: "myapp"}, mailer, []string{"ops@example.com"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	return l, mailer
}

func TestHTTPMiddlewareAttachesRequestMeta(t *testing.T) {
	l, _ := newTestLogger(t)

	var meta logging.Meta
	var ok bool
	handler := HTTPMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta, ok = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, ok)
	assert.NotEmpty(t, meta.RequestID)
	assert.Equal(t, http.MethodGet, meta.Method)
	assert.Equal(t, "/health", meta.Path)
	assert.Equal(t, meta.RequestID, rec.Header().Get("X-Request-ID"))
}

func TestHTTPMiddlewarePreservesIncomingRequestID(t *testing.T) {
	l, _ := newTestLogger(t)

	handler := HTTPMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-from-client")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-from-client", rec.Header().Get("X-Request-ID"))
}

func TestHTTPRecoveryConvertsPanicToErrorEvent(t *testing.T) {
	l, mailer := newTestLogger(t)

	handler := HTTPRecovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/crash", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	require.Eventually(t, func() bool {
		return len(mailer.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, mailer.all()[0].Body, "panic: boom")
}

func TestHTTPLoggerAlertsOnServerErrors(t *testing.T) {
	l, mailer := newTestLogger(t)

	handler := HTTPMiddleware(l)(HTTPLogger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})))

	req := httptest.NewRequest(http.MethodGet, "/upstream", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Eventually(t, func() bool {
		return len(mailer.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, mailer.all()[0].Body, "HTTP 502 GET /upstream")
}

func TestHTTPLoggerDoesNotAlertOnSuccess(t *testing.T) {
	l, mailer := newTestLogger(t)

	handler := HTTPLogger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, mailer.all())
}
