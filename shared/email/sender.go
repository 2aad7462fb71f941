package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"comment-insights/internal/models"
	"comment-insights/shared/config"

	"gopkg.in/gomail.v2"
)

//go:embed digest.html
var digestTemplate string

var digestTmpl = template.Must(template.New("digest").Parse(digestTemplate))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	config *config.EmailConfig
	dialer dialer
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		dialer: gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.Username, cfg.Password),
	}
}

// SendDigest mails one section per analyzed video with each video's comment
// CSV attached.
func (s *Sender) SendDigest(digest *models.Digest) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}
	if len(digest.Reports) == 0 && len(digest.Failures) == 0 {
		return nil
	}

	m, err := s.buildMessage(digest)
	if err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func renderDigest(digest *models.Digest) (string, error) {
	var body bytes.Buffer
	if err := digestTmpl.Execute(&body, digest); err != nil {
		return "", fmt.Errorf("failed to generate email body: %w", err)
	}
	return body.String(), nil
}

func (s *Sender) buildMessage(digest *models.Digest) (*gomail.Message, error) {
	body, err := renderDigest(digest)
	if err != nil {
		return nil, err
	}

	from := s.config.FromEmail
	if from == "" {
		from = s.config.Username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", s.config.ToEmail)
	m.SetHeader("Subject", fmt.Sprintf("Comment Insights Digest - %d Videos (%s)",
		len(digest.Reports), digest.Date.Format("Jan 2, 2006")))
	m.SetBody("text/html", body)

	for _, report := range digest.Reports {
		if report.CSVContent == "" {
			continue
		}
		content := report.CSVContent
		m.Attach(fmt.Sprintf("youtube_comments_%s.csv", report.VideoID), gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.WriteString(w, content)
			return err
		}))
	}

	return m, nil
}
