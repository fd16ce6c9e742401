package billing

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second)
}

func TestGetPayments(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/student/payments/", r.URL.Path)
		assert.Equal(t, "S1", r.URL.Query().Get("student_id_number"))
		assert.Equal(t, "2025-1", r.URL.Query().Get("term"))
		assert.Equal(t, "Api-Key test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"payments":[{"amount":150.5,"date":"2025-01-10","method":"ecocash"}]}}`))
	})

	payments, err := client.GetPayments("S1", "2025-1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 150.5, payments[0].Amount)
	assert.Equal(t, "ecocash", payments[0].Method)
}

func TestGetStatement(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/student-account-statement/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"balance":412.75}}`))
	})

	statement, err := client.GetStatement("S1", "2025-1")
	require.NoError(t, err)
	assert.Equal(t, 412.75, statement.Balance)
}

func TestGetDebtList(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students/accounts-in-debt", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"student":{"student_number":"S1"},"outstanding_balance":90}]}`))
	})

	entries, err := client.GetDebtList()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "S1", entries[0].Student.StudentNumber)
	assert.Equal(t, 90.0, entries[0].OutstandingBalance)
}

func TestGetProfile(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/student/profile/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"firstname":"Tawanda","lastname":"Nkomo","student_mobile":"0771234567","guardian_mobile_number":"+263712000000"}}`))
	})

	profile, err := client.GetProfile("S1")
	require.NoError(t, err)
	assert.Equal(t, "Tawanda", profile.Firstname)
	assert.Equal(t, "+263712000000", profile.GuardianMobile)
}

func TestNotFoundMapsToNoRecord(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.GetStatement("NOPE", "2025-1")
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestServerErrorMapsToUpstreamUnavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetPayments("S1", "2025-1")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestTransportErrorMapsToUpstreamUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "test-key", time.Second)

	_, err := client.GetDebtList()
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
