package services

import (
	"sync"
)

// SentMail captures one email handed to the mock mailer
type SentMail struct {
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// MockMailService is a mock implementation of MailService for testing
type MockMailService struct {
	sent    []SentMail
	failAll bool
	mu      sync.Mutex
}

// NewMockMailService creates a new mock mail service
func NewMockMailService() *MockMailService {
	return &MockMailService{}
}

// SetAsMockForTesting sets this mock as the global mail service instance
func (m *MockMailService) SetAsMockForTesting() {
	SetMailService(m)
}

// FailDeliveries makes every subsequent Send return ErrDelivery
func (m *MockMailService) FailDeliveries(fail bool) {
	m.mu.Lock()
	m.failAll = fail
	m.mu.Unlock()
}

// Send records the mail instead of delivering it
func (m *MockMailService) Send(toEmail, subject, plainBody, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return ErrDelivery
	}

	m.sent = append(m.sent, SentMail{
		To:        toEmail,
		Subject:   subject,
		PlainBody: plainBody,
		HTMLBody:  htmlBody,
	})
	return nil
}

// SentMails returns all captured mails (for testing assertions)
func (m *MockMailService) SentMails() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	mails := make([]SentMail, len(m.sent))
	copy(mails, m.sent)
	return mails
}

// Clear removes all captured mails
func (m *MockMailService) Clear() {
	m.mu.Lock()
	m.sent = nil
	m.mu.Unlock()
}
