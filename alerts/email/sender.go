package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers plain-text mail over SMTP. Each Send call produces one
// message to one recipient so that a failing address cannot affect the
// others.
type Sender struct {
	config *Config
}

/**
 * NewSender creates an SMTP sender from a validated configuration.
 * Supports both plain SMTP and TLS connections.
 *
 * @param config SMTP configuration including host, credentials and sender
 * @return *Sender Ready-to-use sender
 */
func NewSender(config *Config) *Sender {
	return &Sender{config: config}
}

// Send delivers one message to one recipient.
func (s *Sender) Send(subject, body, recipient string) error {
	message := buildMessage(s.config.From, recipient, subject, body)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := s.auth()

	if s.config.UseTLS {
		return s.sendWithTLS(addr, auth, recipient, message)
	}

	return smtp.SendMail(addr, auth, s.config.From, []string{recipient}, []byte(message))
}

func (s *Sender) auth() smtp.Auth {
	if s.config.Username != "" && s.config.Password != "" {
		return smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}
	return nil
}

func (s *Sender) sendWithTLS(addr string, auth smtp.Auth, recipient, message string) error {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: s.config.SkipVerify,
		ServerName:         s.config.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("SMTP RCPT command failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close email writer: %w", err)
	}

	return client.Quit()
}

// buildMessage assembles the RFC 822 message. Alert bodies are JSON and
// administrative notices are plain prose, so text/plain covers both.
func buildMessage(from, to, subject, body string) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return msg.String()
}
