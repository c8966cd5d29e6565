package portal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	devenv "regassist-backend/dev/env"
	"regassist-backend/lib/chrono"
	"regassist-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const testTerm = "3202320"

// 1234 minutes after the epoch: t = 234, e = 24
var testNow = time.UnixMilli(1234*60000 + 5000)

func newTestClient(t *testing.T, baseUrl string) *Client {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/portal")
	t.Cleanup(cleanup)

	client, err := NewClient(ClientOptions{
		BaseUrl: baseUrl,
		TermId:  testTerm,
		Timeout: time.Second * 5,
		Time:    chrono.FixedTime{At: testNow},
	})
	require.NoError(t, err)
	return client
}

func TestNewClientOptions(t *testing.T) {
	_, err := NewClient(ClientOptions{TermId: testTerm})
	require.Error(t, err)
	_, err = NewClient(ClientOptions{BaseUrl: "https://portal.example.edu"})
	require.Error(t, err)

	client, err := NewClient(ClientOptions{
		BaseUrl:           "https://portal.example.edu/student/",
		TermId:            testTerm,
		RequestsPerSecond: 0.5,
		CloudflareBypass:  true,
	})
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.edu/student", client.BaseUrl.String())
}

func TestSessionLifecycle(t *testing.T) {
	portal, server := newFakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	session, err := client.Login(ctx, portal.username, portal.password)
	require.NoError(t, err)
	require.Equal(t, Session("SESSION0001ABC"), session)
	// the login redirect is never followed
	require.Equal(t, 0, portal.Hits("/home.jsp"))

	valid, err := client.IsValidSession(ctx, session)
	require.NoError(t, err)
	require.True(t, valid)

	name, ok, err := client.GetName(ctx, session)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Jane Doe", name)

	err = client.Logout(ctx, session)
	require.NoError(t, err)
	require.Equal(t, "logout=link", portal.LastQuery("/login.jsp"))

	valid, err = client.IsValidSession(ctx, session)
	require.NoError(t, err)
	require.False(t, valid)

	_, ok, err = client.GetName(ctx, session)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoginWrongCredentials(t *testing.T) {
	portal, server := newFakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	session, err := client.Login(ctx, portal.username, "wrong_password123")
	require.NoError(t, err)
	require.Equal(t, NoSession, session)
	require.Equal(t, 0, portal.sessionCount())

	checks := portal.Hits("/api/getAcademicPlans")
	valid, err := client.IsValidSession(ctx, session)
	require.NoError(t, err)
	require.False(t, valid)
	// NoSession never reaches the portal
	require.Equal(t, checks, portal.Hits("/api/getAcademicPlans"))
}

func TestSessionExpiredByPortal(t *testing.T) {
	portal, server := newFakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	session, err := client.Login(ctx, portal.username, portal.password)
	require.NoError(t, err)
	portal.Expire(session)

	valid, err := client.IsValidSession(ctx, session)
	require.NoError(t, err)
	require.False(t, valid)
}

func TestKeepAlive(t *testing.T) {
	portal, server := newFakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	session, err := client.Login(ctx, portal.username, portal.password)
	require.NoError(t, err)

	testCases := []struct {
		name      string
		setCookie string
		expected  bool
	}{
		{name: "no new cookie", setCookie: "", expected: true},
		{name: "same session", setCookie: fmt.Sprintf("JSESSIONID=%s; Path=/", session), expected: true},
		{name: "same session different case", setCookie: fmt.Sprintf("JSESSIONID=%s; Path=/", lowerSession(session)), expected: true},
		{name: "rotated session", setCookie: "JSESSIONID=SOMETHINGELSE; Path=/", expected: false},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			portal.SetKeepAliveCookie(test.setCookie)
			alive, err := client.KeepAlive(ctx, session)
			require.NoError(t, err)
			require.Equal(t, test.expected, alive)
			require.Equal(t, fmt.Sprintf("_=%d", testNow.UnixMilli()), portal.LastQuery("/realtime.jsp"))
		})
	}
}

func TestFetchCourse(t *testing.T) {
	portal, server := newFakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	portal.SetClassData(introToSystemsXml)
	course, err := client.FetchCourse(ctx, "COMP 2401")
	require.NoError(t, err)
	require.Equal(t, "term=3202320&course_0_0=COMP%202401&t=234&e=24", portal.LastQuery("/getclassdata.jsp"))
	require.Len(t, course.Lectures, 1)
	require.Equal(t, "A1", course.Lectures[0].CartId)
	require.Len(t, course.Tutorials, 1)
	require.Equal(t, "B2", course.Tutorials[0].CartId)
	require.Len(t, course.Labs, 0)

	raw, err := client.FetchCourseXml(ctx, "COMP 2401")
	require.NoError(t, err)
	require.Equal(t, introToSystemsXml, raw)
}

func TestFetchCourseErrors(t *testing.T) {
	portal, server := newFakePortal(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	portal.SetClassData(notFoundXml)
	_, err := client.FetchCourse(ctx, "COMP 9999")
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, RemoteErrorNotFound, remoteErr.Kind)

	portal.SetClassData(notInTermXml)
	_, err = client.FetchCourse(ctx, "COMP 2401")
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, RemoteErrorNotInTerm, remoteErr.Kind)

	portal.SetClassData([]byte("<html>Service Unavailable</html>"))
	_, err = client.FetchCourse(ctx, "COMP 2401")
	require.True(t, errors.Is(err, ErrMalformedCourseDocument))
}

func TestRealPortal(t *testing.T) {
	config, err := devenv.GetStateConfig[devenv.PortalTestConfig]("portal_config.json5")
	if err != nil || config.BaseUrl == "" {
		t.Skip("no portal_config.json5 in dev/.state")
	}

	cleanup := telemetry.SetupForTesting(t, "test:scrapers/portal")
	defer cleanup()

	ctx, span := tracer.Start(context.Background(), "TestRealPortal")
	defer span.End()

	client, err := NewClient(ClientOptions{
		BaseUrl: config.BaseUrl,
		TermId:  config.TermId,
		Timeout: time.Second * 30,
	})
	require.NoError(t, err)

	session, err := client.Login(ctx, config.Username, config.Password)
	require.NoError(t, err)
	require.NotEqual(t, NoSession, session)

	valid, err := client.IsValidSession(ctx, session)
	require.NoError(t, err)
	require.True(t, valid)

	alive, err := client.KeepAlive(ctx, session)
	require.NoError(t, err)
	require.True(t, alive)

	require.NoError(t, client.Logout(ctx, session))
	valid, err = client.IsValidSession(ctx, session)
	require.NoError(t, err)
	require.False(t, valid)

	if config.Course != "" {
		course, err := client.FetchCourse(ctx, config.Course)
		require.NoError(t, err)
		require.NotEmpty(t, course.Blocks())
	}
}
