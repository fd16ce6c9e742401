package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shiningsmiles/gatepass-bridge/internal/billing"
	"github.com/shiningsmiles/gatepass-bridge/internal/models"
	"github.com/shiningsmiles/gatepass-bridge/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var termEnd = time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)

type entitlementFixture struct {
	svc     *EntitlementService
	db      *gorm.DB
	gateway *fakeGateway
	store   *fakeStore
	billing *fakeBilling
}

func newEntitlementFixture(t *testing.T) *entitlementFixture {
	t.Helper()
	db := newTestDB(t)
	gateway := &fakeGateway{}
	store := newFakeStore()
	billingAPI := newFakeBilling()
	billingAPI.profiles["S1"] = &billing.Profile{
		Firstname:     "Tawanda",
		Lastname:      "Nkomo",
		StudentMobile: "0771234567",
	}

	contacts := NewContactService(db, billingAPI, "263")
	svc := NewEntitlementService(
		db, contacts, gateway, render.NewPassRenderer("TEST SCHOOL"), store,
		"https://bridge.example.com", t.TempDir(),
		func(string) time.Time { return termEnd },
	)
	return &entitlementFixture{svc: svc, db: db, gateway: gateway, store: store, billing: billingAPI}
}

func TestIssueFullPaymentValidUntilTermEnd(t *testing.T) {
	f := newEntitlementFixture(t)

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIssued, result.Outcome)
	assert.Equal(t, termEnd, result.ExpiresAt)
	assert.Equal(t, "+263771234567", result.WhatsAppNumber)
	assert.Equal(t, DeliveryMedia, result.Delivery)
}

func TestIssueSeventyFivePercentSixtyDays(t *testing.T) {
	f := newEntitlementFixture(t)

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIssued, result.Outcome)
	assert.WithinDuration(t, time.Now().UTC().Add(60*24*time.Hour), result.ExpiresAt, time.Minute)
}

func TestIssueFiftyPercentThirtyDays(t *testing.T) {
	f := newEntitlementFixture(t)

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 500, 1000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIssued, result.Outcome)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), result.ExpiresAt, time.Minute)
}

func TestIssueBelowThresholdDenied(t *testing.T) {
	f := newEntitlementFixture(t)

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 400, 1000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDenied, result.Outcome)
	assert.Empty(t, result.PassID)

	var count int64
	require.NoError(t, f.db.Model(&models.GatePass{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.gateway.sent)
}

func TestIssueReusesUnexpiredPassOnNonIncreasingPercent(t *testing.T) {
	f := newEntitlementFixture(t)

	first, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err)
	require.Equal(t, OutcomeIssued, first.Outcome)
	sendsAfterFirst := len(f.gateway.sent)

	second, err := f.svc.Issue(context.Background(), "S1", "2025-1", 700, 1000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, second.Outcome)
	assert.Equal(t, first.PassID, second.PassID)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	assert.Len(t, f.gateway.sent, sendsAfterFirst, "reuse must not send again")

	var count int64
	require.NoError(t, f.db.Model(&models.GatePass{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestIssueHigherPercentSupersedes(t *testing.T) {
	f := newEntitlementFixture(t)

	first, err := f.svc.Issue(context.Background(), "S1", "2025-1", 600, 1000)
	require.NoError(t, err)

	second, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIssued, second.Outcome)
	assert.NotEqual(t, first.PassID, second.PassID)

	// Old pass stays as a historical record.
	var count int64
	require.NoError(t, f.db.Model(&models.GatePass{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestIssueUnresolvableContact(t *testing.T) {
	f := newEntitlementFixture(t)

	_, err := f.svc.Issue(context.Background(), "UNKNOWN", "2025-1", 800, 1000)
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestIssueInvalidTotalFees(t *testing.T) {
	f := newEntitlementFixture(t)

	_, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestIssueStorageFailureLeavesNoPass(t *testing.T) {
	f := newEntitlementFixture(t)
	f.store.failPut = true

	_, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.GatePass{}).Count(&count).Error)
	assert.Zero(t, count, "no pass may be persisted without a stored document")
	assert.Empty(t, f.gateway.sent)
}

func TestIssueMediaFailureFallsBackToText(t *testing.T) {
	f := newEntitlementFixture(t)
	f.gateway.failMedia = true

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIssued, result.Outcome)
	assert.Equal(t, DeliveryFallback, result.Delivery)

	require.Len(t, f.gateway.sent, 1)
	body := f.gateway.sent[0].Body
	assert.Empty(t, f.gateway.sent[0].MediaURL)
	assert.Contains(t, body, result.PassID)
	assert.Contains(t, body, "80.0%")
	assert.Contains(t, body, "valid only for +263771234567")
}

func TestIssueUnreachableLinkFallsBackToText(t *testing.T) {
	f := newEntitlementFixture(t)
	f.store.failProbe = true

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err)
	assert.Equal(t, DeliveryFallback, result.Delivery)
}

func TestIssueDeliveryFailureKeepsPassValid(t *testing.T) {
	f := newEntitlementFixture(t)
	f.gateway.failMedia = true
	f.gateway.failText = true

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err, "delivery failure never invalidates an issued pass")
	assert.Equal(t, OutcomeIssued, result.Outcome)
	assert.Equal(t, DeliveryFailed, result.Delivery)

	var pass models.GatePass
	require.NoError(t, f.db.Where("pass_id = ?", result.PassID).First(&pass).Error)
	assert.Equal(t, 80, pass.PaymentPercent)
}

func TestIssueRecordsMessageSID(t *testing.T) {
	f := newEntitlementFixture(t)

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err)

	var pass models.GatePass
	require.NoError(t, f.db.Where("pass_id = ?", result.PassID).First(&pass).Error)
	require.NotNil(t, pass.MessageSID)
	assert.True(t, strings.HasPrefix(*pass.MessageSID, "SM"))
}

func TestResendLatestUnknownSender(t *testing.T) {
	f := newEntitlementFixture(t)

	_, err := f.svc.ResendLatest(context.Background(), "+263700000000")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestResendLatestNoPass(t *testing.T) {
	f := newEntitlementFixture(t)

	// Cache the contact without issuing a pass.
	_, err := f.svc.contacts.Resolve("S1")
	require.NoError(t, err)

	reply, err := f.svc.ResendLatest(context.Background(), "+263771234567")
	require.NoError(t, err)
	assert.Equal(t, "No active gate pass found for S1.", reply)
}

func TestResendLatestSendsDocumentAgain(t *testing.T) {
	f := newEntitlementFixture(t)

	result, err := f.svc.Issue(context.Background(), "S1", "2025-1", 800, 1000)
	require.NoError(t, err)
	sendsAfterIssue := len(f.gateway.sent)

	reply, err := f.svc.ResendLatest(context.Background(), "+263771234567")
	require.NoError(t, err)
	assert.Equal(t, "Your gate pass has been sent as a PDF.", reply)
	require.Len(t, f.gateway.sent, sendsAfterIssue+1)

	resent := f.gateway.sent[len(f.gateway.sent)-1]
	assert.Contains(t, resent.MediaURL, result.PassID)
}
