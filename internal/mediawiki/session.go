package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mwclient "cgt.name/pkg/go-mwclient"
	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"bahaibot/internal/logging"
	"bahaibot/internal/retry"
	"bahaibot/internal/services"
)

// Options configures a Session.
type Options struct {
	APIURL    string
	UserAgent string
	Username  string
	Password  string
	Retry     retry.Policy
	Logger    *slog.Logger
}

// Session is an authenticated (or anonymous) connection to one MediaWiki API
// endpoint. Every call goes through the shared retry policy.
type Session struct {
	client *mwclient.Client
	api    string
	user   string
	retry  retry.Policy
	logger *slog.Logger
}

// transientCodes lists API error codes that clear up on their own. A badtoken
// error also drops the cached CSRF token so the next attempt fetches a new one.
var transientCodes = map[string]bool{
	"ratelimited": true,
	"maxlag":      true,
	"readonly":    true,
	"badtoken":    true,
}

// Dial creates a client for opts.APIURL and logs in when credentials are set.
func Dial(ctx context.Context, opts Options) (*Session, error) {
	if strings.TrimSpace(opts.APIURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "mediawiki", "dial", "api url is empty", nil)
	}
	client, err := mwclient.New(opts.APIURL, opts.UserAgent)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mediawiki", "dial", opts.APIURL, err)
	}
	client.Maxlag.On = true

	logger := logging.NewComponentLogger(opts.Logger, "mediawiki")
	policy := withAPIClassifier(opts.Retry)
	if policy.OnRetry == nil {
		policy.OnRetry = logging.RetryHook(logger, opts.APIURL)
	}
	s := &Session{client: client, api: opts.APIURL, user: opts.Username, retry: policy, logger: logger}
	if opts.Username == "" {
		return s, nil
	}
	err = s.retry.Do(ctx, "login", func(context.Context) error {
		return s.client.Login(opts.Username, opts.Password)
	})
	if err != nil {
		return nil, classify("login", opts.Username, err)
	}
	logger.Info("logged in", logging.String("api", opts.APIURL), logging.String("user", opts.Username))
	return s, nil
}

// withAPIClassifier makes policy decide API errors by code before falling back
// to its own classifier.
func withAPIClassifier(policy retry.Policy) retry.Policy {
	base := policy.Classify
	if base == nil {
		base = retry.IsRetriable
	}
	policy.Classify = func(err error) bool {
		if code, ok := APIErrorCode(err); ok {
			return transientCodes[code]
		}
		if errors.Is(err, mwclient.ErrAPIBusy) {
			return true
		}
		return base(err)
	}
	return policy
}

// APIErrorCode returns the MediaWiki error code carried by err, if any.
func APIErrorCode(err error) (string, bool) {
	var apiErr mwclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return "", false
}

// API returns the endpoint URL.
func (s *Session) API() string { return s.api }

// LoggedIn reports whether the session authenticated as a user.
func (s *Session) LoggedIn() bool { return s.user != "" }

// Logout ends an authenticated session.
func (s *Session) Logout() {
	if s.user != "" {
		s.client.Logout()
	}
}

// Get performs a read request.
func (s *Session) Get(ctx context.Context, p params.Values) (*jason.Object, error) {
	return s.call(ctx, "get "+p["action"], func() (*jason.Object, error) { return s.client.Get(p) })
}

// GetRaw performs a read request and returns the undecoded body. An error
// object in the body is returned as a mwclient.APIError.
func (s *Session) GetRaw(ctx context.Context, p params.Values) ([]byte, error) {
	var body []byte
	err := s.retry.Do(ctx, "get "+p["action"], func(context.Context) error {
		raw, err := s.client.GetRaw(p)
		if err != nil {
			return err
		}
		if err := rawAPIError(raw); err != nil {
			return err
		}
		body = raw
		return nil
	})
	if err != nil {
		return nil, classify(p["action"], "", err)
	}
	return body, nil
}

// Write performs a state-changing POST, attaching the CSRF token on each
// attempt.
func (s *Session) Write(ctx context.Context, p params.Values) (*jason.Object, error) {
	return s.call(ctx, "post "+p["action"], func() (*jason.Object, error) {
		token, err := s.client.GetToken(mwclient.CSRFToken)
		if err != nil {
			return nil, fmt.Errorf("fetch csrf token: %w", err)
		}
		p["token"] = token
		return s.client.Post(p)
	})
}

// call runs fn under the retry policy. Warnings returned with a response are
// logged and the response is used; API errors fail the attempt.
func (s *Session) call(ctx context.Context, op string, fn func() (*jason.Object, error)) (*jason.Object, error) {
	var resp *jason.Object
	err := s.retry.Do(ctx, op, func(context.Context) error {
		obj, err := fn()
		var warnings mwclient.APIWarnings
		if obj != nil && errors.As(err, &warnings) {
			s.logger.Debug("api warnings", logging.String("operation", op), logging.Error(err))
			err = nil
		}
		if err != nil {
			s.forgetToken(err)
			return err
		}
		resp = obj
		return nil
	})
	if err != nil {
		return nil, classify(op, "", err)
	}
	return resp, nil
}

func (s *Session) forgetToken(err error) {
	if code, ok := APIErrorCode(err); ok && code == "badtoken" {
		delete(s.client.Tokens, mwclient.CSRFToken)
	}
}

type rawErrorBody struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func rawAPIError(body []byte) error {
	var parsed rawErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode api response: %w", err)
	}
	if parsed.Error == nil {
		return nil
	}
	return mwclient.APIError{Code: parsed.Error.Code, Info: parsed.Error.Info}
}

// PageText returns the current wikitext of title. A missing page yields an
// error wrapping services.ErrNotFound.
func (s *Session) PageText(ctx context.Context, title string) (string, error) {
	resp, err := s.Get(ctx, params.Values{
		"action":        "query",
		"prop":          "revisions",
		"titles":        title,
		"rvprop":        "content",
		"rvslots":       "main",
		"formatversion": "2",
	})
	if err != nil {
		return "", err
	}
	pages, err := resp.GetObjectArray("query", "pages")
	if err != nil || len(pages) == 0 {
		return "", services.Wrap(services.ErrRemote, "mediawiki", "get page", title, err)
	}
	page := pages[0]
	if missing, err := page.GetBoolean("missing"); err == nil && missing {
		return "", services.Wrap(services.ErrNotFound, "mediawiki", "get page", title, nil)
	}
	revisions, err := page.GetObjectArray("revisions")
	if err != nil || len(revisions) == 0 {
		return "", services.Wrap(services.ErrNotFound, "mediawiki", "get page", title, err)
	}
	content, err := revisions[0].GetString("slots", "main", "content")
	if err != nil {
		return "", services.Wrap(services.ErrRemote, "mediawiki", "get page", title, err)
	}
	return content, nil
}

// EditPage replaces the text of title. An edit that changes nothing is not an
// error.
func (s *Session) EditPage(ctx context.Context, title, text, summary string) error {
	p := params.Values{
		"title":   title,
		"text":    text,
		"summary": summary,
		"bot":     "",
	}
	err := s.retry.Do(ctx, "edit page", func(context.Context) error {
		delete(p, "token")
		err := s.client.Edit(p)
		var warnings mwclient.APIWarnings
		if errors.Is(err, mwclient.ErrEditNoChange) || errors.As(err, &warnings) {
			return nil
		}
		s.forgetToken(err)
		return err
	})
	if err != nil {
		return classify("edit page", title, err)
	}
	return nil
}

// CategoryMembers lists page titles in category, following continuation.
// namespace restricts results when non-empty (e.g. "6" for files).
func (s *Session) CategoryMembers(ctx context.Context, category, namespace string) ([]string, error) {
	if !strings.Contains(category, ":") {
		category = "Category:" + category
	}
	p := params.Values{
		"action":  "query",
		"list":    "categorymembers",
		"cmtitle": category,
		"cmlimit": "max",
	}
	if namespace != "" {
		p["cmnamespace"] = namespace
	}
	var titles []string
	q := s.client.NewQuery(p)
	for q.Next() {
		if err := ctx.Err(); err != nil {
			return titles, err
		}
		members, err := q.Resp().GetObjectArray("query", "categorymembers")
		if err != nil {
			continue
		}
		for _, m := range members {
			title, err := m.GetString("title")
			if err == nil && title != "" {
				titles = append(titles, title)
			}
		}
	}
	var warnings mwclient.APIWarnings
	if err := q.Err(); err != nil && !errors.As(err, &warnings) {
		return titles, classify("category members", category, err)
	}
	return titles, nil
}

// classify tags err with the services marker matching its cause.
func classify(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, mwclient.ErrPageNotFound):
		return services.Wrap(services.ErrNotFound, "mediawiki", op, subject, err)
	case errors.Is(err, mwclient.ErrAPIBusy):
		return services.Wrap(services.ErrTransient, "mediawiki", op, subject, err)
	}
	if code, ok := APIErrorCode(err); ok {
		if transientCodes[code] {
			return services.Wrap(services.ErrTransient, "mediawiki", op, subject, err)
		}
		return services.Wrap(services.ErrRemote, "mediawiki", op, subject, err)
	}
	switch {
	case retry.IsRetriable(err):
		return services.Wrap(services.ErrTransient, "mediawiki", op, subject, err)
	default:
		return services.Wrap(services.ErrRemote, "mediawiki", op, subject, err)
	}
}

