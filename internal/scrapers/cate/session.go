package cate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"catemirror/internal/components/assert"
	"catemirror/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("catemirror/scrapers/cate")

const (
	report_session_authenticate = "session.authenticate"
	report_session_fetch        = "session.fetch"
	report_session_bind         = "session.bind-external-auth"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type SecondaryOptions struct {
	// BaseUrl is the root of the secondary hosting provider, for example https://piazza.com
	BaseUrl string
	Token   string
}

type SessionOptions struct {
	BaseUrl  string
	Username string
	Password string
	Year     string
	Class    string
	Period   int

	Secondary SecondaryOptions
	// ExternalAuthDomains lists domains (matched on the host and its parents)
	// of external course sites that accept the portal credentials.
	ExternalAuthDomains []string

	// RequestsPerSecond limits the request rate, 0 disables the limit.
	RequestsPerSecond float64
	// Timeout of a single request, 0 means 30 seconds.
	Timeout time.Duration
	// BrowserTransport makes the tls fingerprint and headers look like a browser.
	BrowserTransport bool
	// HttpDump receives every request with its response headers, it can be nil.
	HttpDump telemetry.InstrumentOutput
}

type credential struct {
	username string
	password string
	token    string
}

func (c credential) apply(req *resty.Request) {
	if c.token != "" {
		req.SetAuthToken(c.token)
		return
	}
	req.SetBasicAuth(c.username, c.password)
}

// Session is the authenticated connection to the portal. Its credentials never
// change after construction, the only state it accumulates is the set of
// external hosts that have been bound to a credential.
type Session struct {
	endpoints       Endpoints
	portal          credential
	secondaryHost   string
	secondary       credential
	externalDomains []string
	bindings        map[string]credential

	http *resty.Client
	dump telemetry.InstrumentOutput
	tel  telemetry.API
}

func NewSession(opts SessionOptions, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("cate", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Host == "" {
		return nil, fmt.Errorf("base url '%s' has no host", opts.BaseUrl)
	}

	var secondaryUrl *url.URL
	if opts.Secondary.BaseUrl != "" {
		secondaryUrl, err = url.Parse(opts.Secondary.BaseUrl)
		if err != nil {
			return nil, fmt.Errorf("parse secondary url: %w", err)
		}
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	if opts.BrowserTransport {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	if opts.RequestsPerSecond > 0 {
		// max burst >= 1 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, tel)

	s := &Session{
		endpoints: Endpoints{
			Base:      baseUrl,
			Secondary: secondaryUrl,
			Year:      opts.Year,
			Class:     opts.Class,
			Period:    opts.Period,
			Username:  opts.Username,
		},
		portal: credential{
			username: opts.Username,
			password: opts.Password,
		},
		secondary:       credential{token: opts.Secondary.Token},
		externalDomains: normalizeDomains(opts.ExternalAuthDomains),
		bindings:        map[string]credential{},
		http:            client,
		dump:            opts.HttpDump,
		tel:             tel,
	}
	if secondaryUrl != nil {
		s.secondaryHost = strings.ToLower(secondaryUrl.Host)
	}
	return s, nil
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

func (s *Session) Endpoints() Endpoints {
	return s.endpoints
}

func (s *Session) isPortal(u *url.URL) bool {
	return strings.EqualFold(u.Host, s.endpoints.Base.Host)
}

// IsExternalAuthHost returns true if pages of `host` are fetched with a
// credential of their own.
func (s *Session) IsExternalAuthHost(host string) bool {
	_, ok := s.credentialFor(strings.ToLower(host))
	return ok
}

func (s *Session) credentialFor(host string) (credential, bool) {
	if host == "" {
		return credential{}, false
	}
	if host == s.secondaryHost {
		return s.secondary, s.secondary.token != ""
	}
	hostname := host
	if h, _, found := strings.Cut(host, ":"); found {
		hostname = h
	}
	for _, domain := range s.externalDomains {
		if hostname == domain || strings.HasSuffix(hostname, "."+domain) {
			return s.portal, true
		}
	}
	return credential{}, false
}

// BindExternalAuth registers the credential of an external host the first
// time one of its pages is visited. It returns true only when a new binding
// was created.
func (s *Session) BindExternalAuth(host string) bool {
	host = strings.ToLower(host)
	if _, ok := s.bindings[host]; ok {
		return false
	}
	cred, ok := s.credentialFor(host)
	if !ok {
		return false
	}
	s.bindings[host] = cred
	s.tel.ReportDebug(report_session_bind, host)
	return true
}

func (s *Session) applyAuth(req *resty.Request, target *url.URL) {
	if s.isPortal(target) {
		s.portal.apply(req)
		return
	}
	host := strings.ToLower(target.Host)
	s.BindExternalAuth(host)
	cred, ok := s.bindings[host]
	if ok {
		cred.apply(req)
	}
}

// Response is a streamed http response, Body must be closed by the caller.
type Response struct {
	// Url is the final url after redirects.
	Url        *url.URL
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Fetch performs an authenticated GET. Non 2xx responses are turned into
// NotFoundError, AuthenticationError (portal only) or NetworkError, in which
// case the body is already closed.
func (s *Session) Fetch(ctx context.Context, target *url.URL) (*Response, error) {
	endpoint := target.String()
	ctx, span := tracer.Start(ctx, "session:Fetch", trace.WithAttributes(
		attribute.String("url", endpoint),
	))
	defer span.End()

	req := s.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	s.applyAuth(req, target)

	res, err := req.Get(endpoint)
	if err != nil {
		if res != nil && res.RawBody() != nil {
			res.RawBody().Close()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, &NetworkError{Url: endpoint, Err: err}
	}

	status := res.StatusCode()
	span.SetAttributes(attribute.Int("status", status))
	id, duration, _ := telemetry.RequestDuration(res.Request.Context())
	s.tel.ReportDebug(report_session_fetch, id, endpoint, status, duration.String())
	telemetry.DumpStreamed(s.dump, res)

	if status < 200 || status > 299 {
		res.RawBody().Close()
		span.SetStatus(codes.Error, res.Status())

		switch {
		case status == http.StatusNotFound || status == http.StatusGone:
			return nil, &NotFoundError{Url: endpoint, StatusCode: status}
		case (status == http.StatusUnauthorized || status == http.StatusForbidden) && s.isPortal(target):
			return nil, &AuthenticationError{Url: endpoint, StatusCode: status}
		}
		return nil, &NetworkError{Url: endpoint, StatusCode: status}
	}

	final := target
	if res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		final = res.RawResponse.Request.URL
	}

	return &Response{
		Url:        final,
		StatusCode: status,
		Header:     res.Header(),
		Body:       res.RawBody(),
	}, nil
}

// Authenticate checks the credentials against the portal's landing page.
func (s *Session) Authenticate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:Authenticate")
	defer span.End()

	if s.portal.username == "" || s.portal.password == "" {
		err := &AuthenticationError{
			Url: s.endpoints.Base.String(),
			Err: fmt.Errorf("username and password are required"),
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	res, err := s.Fetch(ctx, s.endpoints.Base)
	if err != nil {
		if !IsAuthentication(err) {
			s.tel.ReportBroken(report_session_authenticate, err)
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return res.Close()
}

// ParseDocument parses an html response into a goquery document, decoding
// the declared charset, and closes the body.
func ParseDocument(res *Response) (*goquery.Document, error) {
	defer res.Close()

	reader, err := charset.NewReader(res.Body, res.ContentType())
	if err != nil {
		return nil, fmt.Errorf("decode charset of %s: %w", res.Url, err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", res.Url, err)
	}
	doc.Url = res.Url
	return doc, nil
}
