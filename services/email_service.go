package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/eytgaming/tournament-platform/config"
)

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsConfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp client: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return nil
}

var statusEmailTemplate = template.Must(template.New("status").Parse(`
<p>Tournament <strong>{{.TournamentName}}</strong> update: {{.Message}}</p>
<p><a href="{{.Link}}">Open the tournament page</a></p>`))

func (s *EmailService) SendTournamentStatusEmail(userEmail, tournamentName, message string, tournamentID int) error {
	subject := fmt.Sprintf("Tournament %q: %s", tournamentName, message)
	data := struct {
		TournamentName string
		Message        string
		Link           string
	}{
		TournamentName: tournamentName,
		Message:        message,
		Link:           fmt.Sprintf("%s/tournaments/%d", s.cfg.PublicURL, tournamentID),
	}

	var body bytes.Buffer
	if err := statusEmailTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render status email: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, body.String())
}

func (s *EmailService) SendWelcomeEmail(userEmail string, confirmationToken string) error {
	subject := "Welcome to EYTGaming!"
	link := fmt.Sprintf("%s/confirm-email?token=%s", s.cfg.PublicURL, confirmationToken)
	body := fmt.Sprintf(
		`<p>Welcome to EYTGaming. Confirm your email address to finish signing up:</p>
<p><a href="%s">Confirm email</a></p>`, link)
	return s.SendEmail([]string{userEmail}, subject, body)
}

func (s *EmailService) SendPasswordResetEmail(userEmail string, resetToken string) error {
	subject := "EYTGaming password reset"
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, resetToken)
	body := fmt.Sprintf(
		`<p>A password reset was requested for your account. If this was you, follow the link:</p>
<p><a href="%s">Reset password</a></p>`, link)
	return s.SendEmail([]string{userEmail}, subject, body)
}
