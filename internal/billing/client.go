// Package billing is the typed client for the school management SMS/billing
// API: payments, account statements, debt list and student profiles. All
// calls are read-only and authenticated with an API key.
package billing

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrNoRecord means the provider has no record for the requested
	// student or term. Distinct from transport failures.
	ErrNoRecord = errors.New("billing: no record found")

	// ErrUpstreamUnavailable covers network errors, provider 5xx responses
	// and malformed response bodies.
	ErrUpstreamUnavailable = errors.New("billing: upstream unavailable")
)

type Payment struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Method string  `json:"method"`
}

type Statement struct {
	Balance float64 `json:"balance"`
}

type DebtEntry struct {
	Student struct {
		StudentNumber string `json:"student_number"`
	} `json:"student"`
	OutstandingBalance float64 `json:"outstanding_balance"`
}

type Profile struct {
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	StudentMobile  string `json:"student_mobile"`
	GuardianMobile string `json:"guardian_mobile_number"`
}

type paymentsEnvelope struct {
	Data struct {
		Payments []Payment `json:"payments"`
	} `json:"data"`
}

type statementEnvelope struct {
	Data Statement `json:"data"`
}

type debtEnvelope struct {
	Data []DebtEntry `json:"data"`
}

type profileEnvelope struct {
	Data Profile `json:"data"`
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Api-Key "+apiKey).
		SetHeader("User-Agent", "ShiningSmilesWhatsApp/1.0").
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient}
}

// GetPayments fetches the student's payments for a term, oldest first.
func (c *Client) GetPayments(studentID, term string) ([]Payment, error) {
	var env paymentsEnvelope
	resp, err := c.http.R().
		SetQueryParams(map[string]string{
			"student_id_number": studentID,
			"term":              term,
		}).
		SetResult(&env).
		Get("/student/payments/")
	if err := c.check(resp, err, "payments", studentID); err != nil {
		return nil, err
	}
	return env.Data.Payments, nil
}

// GetStatement fetches the student's account statement for a term.
func (c *Client) GetStatement(studentID, term string) (*Statement, error) {
	var env statementEnvelope
	resp, err := c.http.R().
		SetQueryParams(map[string]string{
			"student_id_number": studentID,
			"term":              term,
		}).
		SetResult(&env).
		Get("/student-account-statement/")
	if err := c.check(resp, err, "statement", studentID); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// GetDebtList fetches all students with outstanding balances.
func (c *Client) GetDebtList() ([]DebtEntry, error) {
	var env debtEnvelope
	resp, err := c.http.R().
		SetResult(&env).
		Get("/students/accounts-in-debt")
	if err := c.check(resp, err, "debt list", ""); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetProfile fetches the student's profile including contact numbers.
func (c *Client) GetProfile(studentID string) (*Profile, error) {
	var env profileEnvelope
	resp, err := c.http.R().
		SetQueryParam("student_id_number", studentID).
		SetResult(&env).
		Get("/student/profile/")
	if err := c.check(resp, err, "profile", studentID); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// check maps transport errors and provider status codes onto the error
// taxonomy. Provider 404s become ErrNoRecord; everything else non-2xx is
// ErrUpstreamUnavailable.
func (c *Client) check(resp *resty.Response, err error, op, studentID string) error {
	if err != nil {
		slog.Error("billing API call failed", "action", op, "student_id", studentID, "error", err.Error())
		return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s for %q", ErrNoRecord, op, studentID)
	}
	if resp.IsError() {
		slog.Error("billing API returned error", "action", op, "student_id", studentID, "status", resp.StatusCode())
		return fmt.Errorf("%w: %s returned status %d", ErrUpstreamUnavailable, op, resp.StatusCode())
	}
	return nil
}
