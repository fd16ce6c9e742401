package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shiningsmiles/gatepass-bridge/internal/billing"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiningsmiles/gatepass-bridge/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Contact{}, &models.GatePass{}, &models.SystemLog{}))
	return db
}

type sentMessage struct {
	To       string
	Body     string
	MediaURL string
}

type fakeGateway struct {
	sent      []sentMessage
	failMedia bool
	failText  bool
	nextSID   int
}

func (g *fakeGateway) SendText(to, body string) (string, error) {
	if g.failText {
		return "", errors.New("provider rejected text")
	}
	g.nextSID++
	g.sent = append(g.sent, sentMessage{To: to, Body: body})
	return fmt.Sprintf("SM%030d", g.nextSID), nil
}

func (g *fakeGateway) SendMedia(to, body, mediaURL string) (string, error) {
	if g.failMedia {
		return "", errors.New("provider rejected media")
	}
	g.nextSID++
	g.sent = append(g.sent, sentMessage{To: to, Body: body, MediaURL: mediaURL})
	return fmt.Sprintf("SM%030d", g.nextSID), nil
}

type fakeStore struct {
	objects   map[string][]byte
	deleted   []string
	failPut   bool
	failProbe bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	if s.failPut {
		return "", errors.New("bucket unavailable")
	}
	s.objects[key] = body
	return "https://test-bucket.s3.amazonaws.com/" + key, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) Probe(_ context.Context, _ string) error {
	if s.failProbe {
		return errors.New("public URL inaccessible: status=403")
	}
	return nil
}

type fakeBilling struct {
	payments   map[string][]billing.Payment
	statements map[string]*billing.Statement
	debt       []billing.DebtEntry
	profiles   map[string]*billing.Profile
	profileErr map[string]error
	err        error
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{
		payments:   make(map[string][]billing.Payment),
		statements: make(map[string]*billing.Statement),
		profiles:   make(map[string]*billing.Profile),
		profileErr: make(map[string]error),
	}
}

func (b *fakeBilling) GetPayments(studentID, _ string) ([]billing.Payment, error) {
	if b.err != nil {
		return nil, b.err
	}
	p, ok := b.payments[studentID]
	if !ok {
		return nil, billing.ErrNoRecord
	}
	return p, nil
}

func (b *fakeBilling) GetStatement(studentID, _ string) (*billing.Statement, error) {
	if b.err != nil {
		return nil, b.err
	}
	s, ok := b.statements[studentID]
	if !ok {
		return nil, billing.ErrNoRecord
	}
	return s, nil
}

func (b *fakeBilling) GetDebtList() ([]billing.DebtEntry, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.debt, nil
}

func (b *fakeBilling) GetProfile(studentID string) (*billing.Profile, error) {
	if err := b.profileErr[studentID]; err != nil {
		return nil, err
	}
	p, ok := b.profiles[studentID]
	if !ok {
		return nil, billing.ErrNoRecord
	}
	return p, nil
}

func debtEntry(studentID string, balance float64) billing.DebtEntry {
	var e billing.DebtEntry
	e.Student.StudentNumber = studentID
	e.OutstandingBalance = balance
	return e
}
