package stine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"time"

	"stine-client/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/stine")

const (
	BaseURL = "https://stine.uni-hamburg.de"
	apiURL  = BaseURL + "/scripts/mgrqispi.dll"
)

// ArgumentCipher encrypts the argument string of the mobile endpoints.
// The concrete cipher is provided by the caller, the client only
// needs the resulting opaque string.
type ArgumentCipher interface {
	Encrypt(screen, sessionID string, args []string) (string, error)
}

// SessionCredentials is the durable part of an authenticated session.
// Persisting the pair and resuming with ResumeSession skips the login
// handshake on the next run.
type SessionCredentials struct {
	// value of the server-assigned cnsc cookie
	Cookie string `json:"cnsc_cookie"`
	// numeric session token carried as the first ARGUMENTS entry of
	// every request
	Session string `json:"session"`
}

type ClientOptions struct {
	// directory for the per-language entity cache files, defaults to
	// the user cache dir
	CacheDir string
	// optional cipher for the mobile endpoints
	MobileCipher ArgumentCipher
	// overrides the portal endpoint, used by tests
	BaseURL string
}

// Client owns one authenticated portal session: the HTTP client, the
// session/cookie pair and the in-memory entity caches populated
// during scraping. A Client must not be shared between concurrent
// flows, the portal's navigation state is inherently serial.
type Client struct {
	http    *resty.Client
	apiURL  string
	baseURL string

	creds    SessionCredentials
	language Language
	cipher   ArgumentCipher

	store      *Store
	modules    map[string]Module
	submodules map[string]SubModule
	mapsLoaded bool
}

func newBaseClient(opts ClientOptions) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("Referer", baseURL+"/")
	client.SetHeader("Origin", baseURL)
	// the portal stalls occasionally, give it plenty of time
	client.SetTimeout(time.Second * 60)

	telemetry.InstrumentResty(client, "scrapers/stine/http")

	store, err := NewStore(opts.CacheDir)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:       client,
		apiURL:     baseURL + "/scripts/mgrqispi.dll",
		baseURL:    baseURL,
		cipher:     opts.MobileCipher,
		store:      store,
		modules:    map[string]Module{},
		submodules: map[string]SubModule{},
	}, nil
}

var sessionTokenRegex = regexp.MustCompile(`-N(\d+)`)

// NewClient performs the login handshake with username and password.
// The session token comes back in the REFRESH header, the sticky
// cnsc cookie in SET_COOKIE; a response missing either is a
// MissingHeaderError.
func NewClient(ctx context.Context, username, password string, opts ClientOptions) (*Client, error) {
	ctx, span := tracer.Start(ctx, "client:login")
	defer span.End()

	c, err := newBaseClient(opts)
	if err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"usrname":   username,
			"pass":      password,
			"APPNAME":   "CampusNet",
			"PRGNAME":   string(ScreenLoginCheck),
			"ARGUMENTS": "clino,usrname,pass,menuno,menu_type,browser,platform",
			"clino":     "000000000000001",
			"menuno":    "000000",
			"menu_type": "classic",
			"browser":   "",
			"platform":  "",
		}).
		Post(c.apiURL)
	if err != nil {
		span.SetStatus(codes.Error, "login request failed")
		return nil, err
	}

	if err := checkForError(res.String()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	refresh := res.Header().Get("Refresh")
	if refresh == "" {
		span.SetStatus(codes.Error, "missing refresh header")
		return nil, MissingHeaderError{Header: "REFRESH"}
	}
	groups := sessionTokenRegex.FindStringSubmatch(refresh)
	if groups == nil {
		span.SetStatus(codes.Error, "missing session token in refresh header")
		return nil, MissingHeaderError{Header: "REFRESH"}
	}
	c.creds.Session = groups[1]

	setCookie := res.Header().Get("Set-Cookie")
	if setCookie == "" {
		span.SetStatus(codes.Error, "missing set-cookie header")
		return nil, MissingHeaderError{Header: "SET_COOKIE"}
	}
	_, value, found := strings.Cut(setCookie, "=")
	if !found {
		span.SetStatus(codes.Error, "malformed set-cookie header")
		return nil, MissingHeaderError{Header: "SET_COOKIE"}
	}
	c.creds.Cookie, _, _ = strings.Cut(value, ";")

	if err := c.probe(ctx); err != nil {
		return nil, err
	}
	slog.Debug("authenticated with username and password")
	return c, nil
}

// ResumeSession reconstructs a client from previously persisted
// credentials and validates them with one probe request.
func ResumeSession(ctx context.Context, creds SessionCredentials, opts ClientOptions) (*Client, error) {
	ctx, span := tracer.Start(ctx, "client:resumeSession")
	defer span.End()

	c, err := newBaseClient(opts)
	if err != nil {
		return nil, err
	}
	c.creds = creds

	if err := c.probe(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	slog.Debug("authenticated with resumed session")
	return c, nil
}

// probe hits the start screen and determines the session's display
// language. Fails with a typed auth error on an expired or rejected
// session.
func (c *Client) probe(ctx context.Context) error {
	_, err := c.Invoke(ctx, ScreenStart, nil)
	if err != nil {
		return err
	}
	c.language, err = c.fetchLanguage(ctx)
	return err
}

// Credentials returns the durable session pair for persistence.
func (c *Client) Credentials() SessionCredentials {
	return c.creds
}

// Invoke posts to the portal's dispatch endpoint: the named screen
// plus the argument tokens, with the session token prepended. It
// returns the raw response body; the body is only inspected for the
// portal's known error pages, nothing else is consumed. Transport
// errors propagate unwrapped so callers can tell a dead network from
// a rejecting portal.
func (c *Client) Invoke(ctx context.Context, screen Screen, args []string) (string, error) {
	tokens := append([]string{"-N" + c.creds.Session}, args...)
	arguments := strings.Join(tokens, ",")

	slog.Debug("invoking portal screen", "screen", screen, "arguments", arguments)

	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"APPNAME":   "CampusNet",
			"PRGNAME":   string(screen),
			"ARGUMENTS": arguments,
		})
	if c.creds.Cookie != "" {
		req.SetHeader("Cookie", "cnsc="+c.creds.Cookie)
	}

	res, err := req.Post(c.apiURL)
	if err != nil {
		return "", err
	}

	body := res.String()
	if err := checkForError(body); err != nil {
		return "", err
	}
	return body, nil
}

// Language returns the session's display language as captured by the
// last probe or SetLanguage call.
func (c *Client) Language() Language {
	return c.language
}

func (c *Client) fetchLanguage(ctx context.Context) (Language, error) {
	body, err := c.Invoke(ctx, ScreenExternalPages, nil)
	if err != nil {
		return "", err
	}
	return languageOf(body)
}

// languageOf reads the lang attribute off the html root element.
func languageOf(body string) (Language, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}
	code, ok := doc.Find("html").Attr("lang")
	if !ok {
		return "", fmt.Errorf("html root element is missing the lang attribute")
	}
	return ParseLanguage(code)
}

// SetLanguage switches the portal session's display language and
// verifies the switch took effect.
func (c *Client) SetLanguage(ctx context.Context, lang Language) error {
	ctx, span := tracer.Start(ctx, "client:setLanguage")
	defer span.End()

	_, err := c.Invoke(ctx, ScreenChangeLanguage, []string{lang.changeArg()})
	if err != nil {
		return err
	}

	current, err := c.fetchLanguage(ctx)
	if err != nil {
		return err
	}
	if current != lang {
		span.SetStatus(codes.Error, "language did not change")
		return fmt.Errorf("failed changing the portal language to %q", lang)
	}
	c.language = lang
	return nil
}

func (c *Client) addModule(m Module) {
	c.modules[m.Number] = m
}

func (c *Client) addSubModule(s SubModule) {
	c.submodules[s.ID] = s
}

// loadMaps bulk-loads the per-language disk cache into the in-memory
// maps. Missing cache files just leave the maps empty.
func (c *Client) loadMaps() {
	if c.mapsLoaded {
		return
	}
	modules, err := c.store.LoadModules(c.language)
	if err == nil {
		for k, v := range modules {
			c.modules[k] = v
		}
	}
	submodules, err := c.store.LoadSubModules(c.language)
	if err == nil {
		for k, v := range submodules {
			c.submodules[k] = v
		}
	}
	c.mapsLoaded = true
}

// saveMaps flushes the in-memory maps to the per-language disk cache.
// A failed write is reported to the caller, not swallowed.
func (c *Client) saveMaps() error {
	if err := c.store.SaveModules(c.language, c.modules); err != nil {
		return fmt.Errorf("saving module cache: %w", err)
	}
	if err := c.store.SaveSubModules(c.language, c.submodules); err != nil {
		return fmt.Errorf("saving submodule cache: %w", err)
	}
	return nil
}

func (c *Client) categoriesToMaps(categories []ModuleCategory) {
	for _, category := range categories {
		for _, module := range category.Modules {
			for _, submodule := range module.SubModules {
				c.submodules[submodule.ID] = submodule
			}
			c.modules[module.Number] = module
		}
		for _, submodule := range category.OrphanSubModules {
			c.submodules[submodule.ID] = submodule
		}
	}
}
