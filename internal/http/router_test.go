package httpapi_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	auditpkg "canon/internal/audit"
	auditmem "canon/internal/audit/store/memory"
	"canon/internal/extractor"
	httpapi "canon/internal/http"
	"canon/internal/intake"
	"canon/internal/intake/handler"
	"canon/internal/schema"
	sessionmem "canon/internal/session/store/memory"
	"canon/pkg/testutil"
)

func newAPI(t *testing.T) http.Handler {
	t.Helper()

	reg, err := schema.NewRegistry("buyer_intake", []schema.FieldSpec{
		{Path: "applicant.full_name", Type: schema.TypeString, Question: "What is your full name?", Priority: 100},
		{Path: "applicant.dependants", Type: schema.TypeNumber, Question: "How many dependants do you have?", Priority: 90},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	service := intake.New(
		reg,
		sessionmem.NewInMemoryStore(),
		auditpkg.NewPublisher(auditmem.NewInMemoryStore()),
		extractor.Chain{extractor.NewDeterministic()},
		logger,
		nil,
	)

	return httpapi.New(httpapi.Config{
		Intake: handler.New(service, logger),
		Logger: logger,
	})
}

func TestHealthz(t *testing.T) {
	api := newAPI(t)

	rec := testutil.DoRequest(api, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestRequestIDEchoed(t *testing.T) {
	api := newAPI(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/sessions", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := testutil.DoRequest(api, req)

	testutil.AssertStatus(t, rec, http.StatusCreated)
	require.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestSourceAgentHeaderFillsProvenance(t *testing.T) {
	api := newAPI(t)

	rec := testutil.DoRequest(api, testutil.NewJSONRequest(t, http.MethodPost, "/sessions", nil))
	sess := testutil.UnmarshalResponse[handler.StartSessionResponse](t, rec)

	req := testutil.NewJSONRequest(t,
		http.MethodPost, fmt.Sprintf("/sessions/%s/patches", sess.Session.ID),
		map[string]any{"patches": []map[string]any{
			{"operation": "replace", "path": "applicant.full_name", "value": "Ada"},
		}})
	req.Header.Set("X-Source-Agent", "broker-portal")
	testutil.AssertStatus(t, testutil.DoRequest(api, req), http.StatusOK)

	rec = testutil.DoRequest(api, testutil.NewJSONRequest(t,
		http.MethodGet, fmt.Sprintf("/sessions/%s/audit", sess.Session.ID), nil))
	trail := testutil.UnmarshalResponse[handler.AuditTrailResponse](t, rec)
	require.Len(t, trail.Entries, 1)
	require.Equal(t, "broker-portal", trail.Entries[0].SourceAgent)
}

// TestInterviewFlow walks a whole interview through the assembled router,
// middleware included.
func TestInterviewFlow(t *testing.T) {
	api := newAPI(t)
	var sessionID string

	testutil.Given(t, "a freshly started session", func(t *testing.T) {
		rec := testutil.DoRequest(api, testutil.NewJSONRequest(t, http.MethodPost, "/sessions", nil))
		testutil.AssertStatus(t, rec, http.StatusCreated)

		resp := testutil.UnmarshalResponse[handler.StartSessionResponse](t, rec)
		sessionID = resp.Session.ID
		require.Equal(t, "applicant.full_name", resp.Next.Path)
	})

	testutil.When(t, "the user states their name", func(t *testing.T) {
		rec := testutil.DoRequest(api, testutil.NewJSONRequest(t,
			http.MethodPost, fmt.Sprintf("/sessions/%s/messages", sessionID),
			map[string]any{"message": "John Smith"}))
		testutil.AssertStatus(t, rec, http.StatusOK)

		resp := testutil.UnmarshalResponse[handler.SubmitResponse](t, rec)
		require.Equal(t, 1, resp.Applied)
		require.Equal(t, "applicant.dependants", resp.Next.Path)
	})

	testutil.When(t, "the user reports no dependents", func(t *testing.T) {
		rec := testutil.DoRequest(api, testutil.NewJSONRequest(t,
			http.MethodPost, fmt.Sprintf("/sessions/%s/messages", sessionID),
			map[string]any{"message": "no dependents"}))
		testutil.AssertStatus(t, rec, http.StatusOK)

		resp := testutil.UnmarshalResponse[handler.SubmitResponse](t, rec)
		require.True(t, resp.Next.Complete)
	})

	testutil.Then(t, "the session is complete and fully audited", func(t *testing.T) {
		rec := testutil.DoRequest(api, testutil.NewJSONRequest(t,
			http.MethodGet, fmt.Sprintf("/sessions/%s", sessionID), nil))
		testutil.AssertStatus(t, rec, http.StatusOK)
		sess := testutil.UnmarshalResponse[handler.SessionResponse](t, rec)
		require.Equal(t, "completed", sess.Status)

		rec = testutil.DoRequest(api, testutil.NewJSONRequest(t,
			http.MethodGet, fmt.Sprintf("/sessions/%s/audit", sessionID), nil))
		trail := testutil.UnmarshalResponse[handler.AuditTrailResponse](t, rec)
		require.Len(t, trail.Entries, 2)
	})
}
