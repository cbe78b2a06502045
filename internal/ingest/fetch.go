package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/lox/migrationforecast/internal/httputil"
)

// maxWorkbookBytes caps downloads; the cleaned dataset is well under this.
const maxWorkbookBytes = 64 << 20

// Fetcher loads workbook bytes from a local path, an http(s) URL or an ftp URL.
// Remote fetches are retried with exponential backoff.
type Fetcher struct {
	client          *http.Client
	initialInterval time.Duration
	maxElapsed      time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:          httputil.NewClientWithTimeout(2 * time.Minute),
		initialInterval: 500 * time.Millisecond,
		maxElapsed:      2 * time.Minute,
	}
}

func (f *Fetcher) backOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.initialInterval
	bo.MaxElapsedTime = f.maxElapsed
	return backoff.WithContext(bo, ctx)
}

// Fetch returns the raw bytes of source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return readFile(source)
	}
	switch u.Scheme {
	case "file":
		return readFile(u.Path)
	case "http", "https":
		return f.fetchHTTP(ctx, source)
	case "ftp":
		return f.fetchFTP(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch workbook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch workbook: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("fetch workbook: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxWorkbookBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, f.backOff(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

type ftpTarget struct {
	addr     string
	user     string
	password string
	path     string
}

func parseFTPURL(u *url.URL) (ftpTarget, error) {
	t := ftpTarget{addr: u.Host, user: "anonymous", password: "anonymous", path: u.Path}
	if u.Hostname() == "" {
		return t, errors.New("ftp url has no host")
	}
	if u.Port() == "" {
		t.addr = u.Host + ":21"
	}
	if u.User != nil {
		t.user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			t.password = p
		}
	}
	if t.path == "" || t.path == "/" {
		return t, errors.New("ftp url has no file path")
	}
	return t, nil
}

func (f *Fetcher) fetchFTP(ctx context.Context, u *url.URL) ([]byte, error) {
	target, err := parseFTPURL(u)
	if err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		conn, err := ftp.Dial(target.addr, ftp.DialWithTimeout(30*time.Second), ftp.DialWithContext(ctx))
		if err != nil {
			return fmt.Errorf("ftp dial: %w", err)
		}
		defer conn.Quit()

		if err := conn.Login(target.user, target.password); err != nil {
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}

		resp, err := conn.Retr(target.path)
		if err != nil {
			var tpErr *textproto.Error
			if errors.As(err, &tpErr) && tpErr.Code >= 500 {
				return backoff.Permanent(fmt.Errorf("ftp retr: %w", err))
			}
			return fmt.Errorf("ftp retr: %w", err)
		}
		defer resp.Close()

		body, err = io.ReadAll(io.LimitReader(resp, maxWorkbookBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, f.backOff(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
