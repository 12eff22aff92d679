// Package main is the entry point for the sendgrid-send CLI, a one-shot
// mail.send client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jaytaylor.com/html2text"

	sendgrid "github.com/shineum/sendgrid-lite"
	"github.com/shineum/sendgrid-lite/internal/config"
	"github.com/shineum/sendgrid-lite/internal/eml"
)

// options collects the message-shaping command line flags.
type options struct {
	emlPath  string
	from     string
	to       string
	cc       string
	bcc      string
	subject  string
	text     string
	textFile string
	html     string
	htmlFile string
	autoText bool
	replyTo  string
	attach   multiFlag
	headers  multiFlag
}

func main() {
	var opts options

	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.StringVar(&opts.emlPath, "eml", "", "send an RFC 5322 message file instead of composing from flags")
	flag.StringVar(&opts.from, "from", "", "sender address, e.g. 'Sender <from@example.com>' (defaults to the configured sender)")
	flag.StringVar(&opts.to, "to", "", "comma-separated to recipients, e.g. 'Alice <a@example.com>, b@example.com'")
	flag.StringVar(&opts.cc, "cc", "", "comma-separated cc recipients")
	flag.StringVar(&opts.bcc, "bcc", "", "comma-separated bcc recipients")
	flag.StringVar(&opts.subject, "subject", "", "message subject")
	flag.StringVar(&opts.text, "text", "", "plain-text body")
	flag.StringVar(&opts.textFile, "text-file", "", "read the plain-text body from a file")
	flag.StringVar(&opts.html, "html", "", "HTML body")
	flag.StringVar(&opts.htmlFile, "html-file", "", "read the HTML body from a file")
	flag.BoolVar(&opts.autoText, "auto-text", false, "derive a plain-text alternative from the HTML body")
	flag.StringVar(&opts.replyTo, "reply-to", "", "reply-to address")
	flag.Var(&opts.attach, "attach", "attach a file (repeatable)")
	flag.Var(&opts.headers, "header", "custom header as 'Name: Value' (repeatable)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	if cfg.SendGrid.APIKey == "" {
		slog.Error("SENDGRID_API_KEY is required")
		os.Exit(1)
	}

	msg, err := buildMail(cfg, &opts)
	if err != nil {
		slog.Error("failed to build message", "error", err)
		os.Exit(1)
	}

	client := sendgrid.New(cfg.SendGrid.APIKey)

	// Setup cancellation on SIGINT/SIGTERM and the configured timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.SendGrid.TimeoutSeconds)*time.Second)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, cancelling send", "signal", sig)
		cancel()
	}()

	body, err := client.Send(ctx, msg)
	if err != nil {
		slog.Error("send failed", "error", err)
		os.Exit(1)
	}

	slog.Info("message sent",
		"to", len(msg.To),
		"cc", len(msg.Cc),
		"bcc", len(msg.Bcc),
		"attachments", len(msg.Attachments),
	)

	// The raw API response goes to stdout; logs go to stderr.
	fmt.Println(body)
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output on
// stderr and the specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// buildMail assembles the outgoing message from an .eml file or from the
// composition flags, then validates it.
func buildMail(cfg *config.Config, opts *options) (*sendgrid.Mail, error) {
	msg, err := composeMail(cfg, opts)
	if err != nil {
		return nil, err
	}

	if opts.autoText && msg.HTML != "" && msg.Text == "" {
		text, err := html2text.FromString(msg.HTML, html2text.Options{TextOnly: true})
		if err != nil {
			return nil, fmt.Errorf("derive text alternative: %w", err)
		}
		msg.SetText(text)
	}

	return msg.Build()
}

func composeMail(cfg *config.Config, opts *options) (*sendgrid.Mail, error) {
	if opts.emlPath != "" {
		raw, err := os.ReadFile(opts.emlPath)
		if err != nil {
			return nil, fmt.Errorf("read eml file: %w", err)
		}
		return eml.Parse(raw)
	}

	from, err := senderDestination(cfg, opts.from)
	if err != nil {
		return nil, err
	}

	tos, err := parseRecipients(opts.to)
	if err != nil {
		return nil, fmt.Errorf("parse -to: %w", err)
	}
	if len(tos) == 0 {
		return nil, fmt.Errorf("at least one -to recipient is required")
	}

	msg := sendgrid.NewMail(tos[0], opts.subject, from)
	for _, d := range tos[1:] {
		msg.AddTo(d)
	}

	ccs, err := parseRecipients(opts.cc)
	if err != nil {
		return nil, fmt.Errorf("parse -cc: %w", err)
	}
	for _, d := range ccs {
		msg.AddCc(d)
	}

	bccs, err := parseRecipients(opts.bcc)
	if err != nil {
		return nil, fmt.Errorf("parse -bcc: %w", err)
	}
	for _, d := range bccs {
		msg.AddBcc(d)
	}

	if opts.replyTo != "" {
		msg.SetReplyTo(opts.replyTo)
	}

	text, err := bodyValue(opts.text, opts.textFile)
	if err != nil {
		return nil, fmt.Errorf("text body: %w", err)
	}
	if text != "" {
		msg.SetText(text)
	}

	html, err := bodyValue(opts.html, opts.htmlFile)
	if err != nil {
		return nil, fmt.Errorf("html body: %w", err)
	}
	if html != "" {
		msg.SetHTML(html)
	}

	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("malformed -header %q, want 'Name: Value'", h)
		}
		msg.AddHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	for _, path := range opts.attach {
		if err := msg.AddAttachment(path); err != nil {
			return nil, err
		}
	}

	return msg, nil
}

// senderDestination resolves the sender from the -from flag, falling back
// to the configured default sender.
func senderDestination(cfg *config.Config, fromFlag string) (sendgrid.Destination, error) {
	if fromFlag != "" {
		addr, err := mail.ParseAddress(fromFlag)
		if err != nil {
			return sendgrid.Destination{}, fmt.Errorf("parse -from: %w", err)
		}
		return sendgrid.Destination{Address: addr.Address, Name: addr.Name}, nil
	}

	if !cfg.Configured() {
		return sendgrid.Destination{}, fmt.Errorf("no sender: set -from or SENDGRID_FROM")
	}
	return sendgrid.Destination{
		Address: cfg.SendGrid.FromAddress,
		Name:    cfg.SendGrid.FromName,
	}, nil
}

// parseRecipients parses a comma-separated RFC 5322 address list into
// Destinations. An empty input yields no recipients.
func parseRecipients(raw string) ([]sendgrid.Destination, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err != nil {
		return nil, err
	}

	result := make([]sendgrid.Destination, 0, len(addresses))
	for _, addr := range addresses {
		result = append(result, sendgrid.Destination{Address: addr.Address, Name: addr.Name})
	}
	return result, nil
}

// bodyValue returns the inline flag value or, when a file path is given
// instead, the file's content. The inline value wins if both are set.
func bodyValue(inline, path string) (string, error) {
	if inline != "" || path == "" {
		return inline, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// multiFlag collects repeated occurrences of a string flag.
type multiFlag []string

func (f *multiFlag) String() string {
	return strings.Join(*f, ", ")
}

func (f *multiFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}
