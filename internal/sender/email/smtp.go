// Package email provides trigger delivery by email via SMTP or an API provider.
package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
)

// sendWithTLS sends an email using TLS/STARTTLS for secure SMTP connections.
func (s *Sender) sendWithTLS(addr string, port int, fromAddr string, recipients []string, msg []byte) error {
	var client *smtp.Client

	if port == 465 {
		// SSL/TLS from the start
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.smtpHost,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server with TLS: %w", err)
		}
		defer conn.Close()

		client, err = smtp.NewClient(conn, s.smtpHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Close()
	} else {
		// Port 587: STARTTLS after connect
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err = smtp.NewClient(conn, s.smtpHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Close()

		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{
				ServerName: s.smtpHost,
			}
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if s.smtpUser != "" && s.smtpPassword != "" {
		auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	return transmit(client, fromAddr, recipients, msg)
}

// sendPlain sends an email over an unencrypted connection (local relays).
func (s *Sender) sendPlain(addr, fromAddr string, recipients []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if s.smtpUser != "" && s.smtpPassword != "" {
		auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	return transmit(client, fromAddr, recipients, msg)
}

// transmit runs the MAIL/RCPT/DATA sequence on an established client.
func transmit(client *smtp.Client, fromAddr string, recipients []string, msg []byte) error {
	if err := client.Mail(fromAddr); err != nil {
		return fmt.Errorf("failed to set sender %s: %w", fromAddr, err)
	}
	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	return client.Quit()
}
