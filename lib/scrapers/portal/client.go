package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"regassist-backend/lib/chrono"
	"regassist-backend/lib/restyutil"
	"regassist-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// Session is the portal's opaque session identifier (the JSESSIONID cookie value).
type Session string

// NoSession is returned by Login when the portal did not hand out a session.
const NoSession Session = ""

// Equal compares two sessions case-insensitively.
func (s Session) Equal(other Session) bool {
	return strings.EqualFold(string(s), string(other))
}

type Client struct {
	BaseUrl *url.URL
	TermId  string
	Http    *resty.Client
	time    chrono.TimeAPI
}

type ClientOptions struct {
	BaseUrl string
	TermId  string
	// RequestsPerSecond limits outgoing requests, 0 disables the limit.
	RequestsPerSecond float64
	// Timeout of 0 leaves the transport default.
	Timeout          time.Duration
	CloudflareBypass bool
	// Time defaults to the system clock.
	Time chrono.TimeAPI
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		return nil, fmt.Errorf("portal base url is required")
	}
	if opts.TermId == "" {
		return nil, fmt.Errorf("portal term id is required")
	}
	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}
	clock := opts.Time
	if clock == nil {
		clock = chrono.NewStandardTime()
	}

	client := resty.New()
	client.SetBaseURL(baseUrl.String())
	// sessions are passed around explicitly, a jar would mix them up
	client.SetCookieJar(nil)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	// the session cookie is read off the first response, so redirects are never followed
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, "regassist.lib.scrapers.portal.http")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	return &Client{
		BaseUrl: baseUrl,
		TermId:  opts.TermId,
		Http:    client,
		time:    clock,
	}, nil
}

func (c *Client) withSession(ctx context.Context, session Session) *resty.Request {
	return c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", sessionCookieHeader(session))
}

// sessionFromResponse reads the session out of the first Set-Cookie header.
func sessionFromResponse(res *resty.Response) Session {
	cookies := res.Header().Values("Set-Cookie")
	if len(cookies) == 0 {
		return NoSession
	}
	return parseSetCookie(cookies[0])
}

// Login posts the credentials to the portal and returns the session it hands
// out, NoSession (with a nil error) means the credentials were rejected.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			loginUsernameField: username,
			loginPasswordField: password,
			loginSubmitField:   "",
		}).
		Post(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post login form")
		return NoSession, err
	}

	session := sessionFromResponse(res)
	if session == NoSession {
		span.SetStatus(codes.Error, "no session cookie in login response")
		return NoSession, nil
	}
	return session, nil
}

// Logout asks the portal to end the session, the response is not inspected.
func (c *Client) Logout(ctx context.Context, session Session) error {
	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	_, err := c.withSession(ctx, session).
		Get(loginPath + "?" + logoutQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request logout")
		return err
	}
	return nil
}

// KeepAlive pings the portal to extend the session. It reports false when the
// portal answers with a different session than the one it was given.
func (c *Client) KeepAlive(ctx context.Context, session Session) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:KeepAlive")
	defer span.End()

	res, err := c.withSession(ctx, session).
		SetQueryParam("_", strconv.FormatInt(c.time.Now().UnixMilli(), 10)).
		Get(keepAlivePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request keep-alive")
		return false, err
	}

	// no new cookie means the session was extended
	renewed := sessionFromResponse(res)
	if renewed == NoSession {
		return true, nil
	}
	alive := session.Equal(renewed)
	span.SetAttributes(attribute.Bool("rotated", !alive))
	return alive, nil
}

// IsValidSession queries the academic plans endpoint, which only returns plans
// for a live session. This costs a round trip.
func (c *Client) IsValidSession(ctx context.Context, session Session) (bool, error) {
	if session == NoSession {
		return false, nil
	}

	ctx, span := tracer.Start(ctx, "client:IsValidSession")
	defer span.End()

	res, err := c.withSession(ctx, session).
		SetQueryParam("term", c.TermId).
		Get(academicPlansPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request academic plans")
		return false, err
	}

	var plans []json.RawMessage
	err = json.Unmarshal(res.Body(), &plans)
	if err != nil {
		span.AddEvent("academic plans payload is not a list")
		return false, nil
	}
	return len(plans) > 0, nil
}

// GetName scrapes the user's name off the criteria page. ok is false when the
// portal says the session is not authenticated, this can disagree with
// IsValidSession for a short time.
func (c *Client) GetName(ctx context.Context, session Session) (name string, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "client:GetName")
	defer span.End()

	res, err := c.withSession(ctx, session).
		Get(criteriaPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch criteria page")
		return "", false, err
	}

	name, ok = extractName(res.String())
	span.SetAttributes(attribute.Bool("authenticated", ok))
	return name, ok, nil
}

// classDataQuery keeps the parameter order the portal's own frontend uses,
// url.Values would sort it.
func (c *Client) classDataQuery(courseName string, token AuthToken) string {
	escape := func(s string) string {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	}
	return fmt.Sprintf(
		"term=%s&course_0_0=%s&t=%d&e=%d",
		escape(c.TermId),
		escape(courseName),
		token.T,
		token.E,
	)
}

// FetchCourseXml returns the raw class data document for a course.
func (c *Client) FetchCourseXml(ctx context.Context, courseName string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:FetchCourseXml")
	defer span.End()

	token := GenerateAuthToken(c.time.Now())
	span.SetAttributes(
		attribute.String("course", courseName),
		attribute.Int64("t", token.T),
		attribute.Int64("e", token.E),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(classDataPath + "?" + c.classDataQuery(courseName, token))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch class data")
		return nil, err
	}
	return res.Body(), nil
}

// FetchCourse fetches and parses a course. Errors reported by the portal come
// back as *RemoteError.
func (c *Client) FetchCourse(ctx context.Context, courseName string) (Course, error) {
	ctx, span := tracer.Start(ctx, "client:FetchCourse")
	defer span.End()

	body, err := c.FetchCourseXml(ctx, courseName)
	if err != nil {
		return Course{}, err
	}
	doc, err := DecodeCourseDocument(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode class data")
		return Course{}, err
	}
	if remoteErr := doc.RemoteError(); remoteErr != nil {
		span.SetAttributes(attribute.String("remote_error", remoteErr.Kind.String()))
		return Course{}, remoteErr
	}
	root, err := doc.Course()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Course{}, err
	}
	return ParseCourse(ctx, root)
}
