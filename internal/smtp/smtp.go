package smtp

import (
	"fmt"

	"github.com/quotegrid/quotegrid/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type EmailServer struct {
	enabled bool
	server  string
	port    int
	user    string
	pass    string
	admin   string
}

func New(conf config.Config) *EmailServer {
	return &EmailServer{
		enabled: conf.Email.Enabled,
		server:  conf.Email.Server,
		port:    conf.Email.Port,
		user:    conf.Email.User,
		pass:    conf.Email.Pass,
		admin:   conf.Email.Admin,
	}
}

func (s *EmailServer) getMessageBase(subject, toEmail string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.user)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	return m
}

// SendPasswordChanged notifies an account that its credential changed and all
// sessions were signed out. Delivery is best-effort; callers must not fail
// their flow on an error here.
func (s *EmailServer) SendPasswordChanged(toEmail string) error {
	if !s.enabled {
		zap.L().Debug("email disabled, skipping password-changed notice")
		return nil
	}

	m := s.getMessageBase("Your password was changed", toEmail)
	m.SetBody(
		"text/plain",
		fmt.Sprintf(
			"The password for your account was just changed and every device was signed out.\n"+
				"If this was not you, contact %s immediately.",
			s.admin,
		),
	)

	return s.send(m)
}

func (s *EmailServer) send(m *gomail.Message) error {
	d := gomail.NewDialer(s.server, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Error(
			"Failed to send an email",
			zap.Error(err),
		)
		return err
	}
	return nil
}
