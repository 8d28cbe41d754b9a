package types

// Event patterns emitted by the service.
const (
	PatternUserCreated = "user_messages"
	PatternSendEmail   = "send_email"
)

// Welcome email contents.
const (
	WelcomeSubject = "Welcome"
	WelcomeMessage = "Welcome to our platform!"
)

// EmailEvent asks a downstream mailer to send an email.
type EmailEvent struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
