package mailer

//go:generate mockgen -destination=../mocks/mock_mail_dispatcher.go -package=mocks github.com/tekriders/auth-service/internal/mailer Dispatcher

import "context"

// Dispatcher delivers transactional mail.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}
