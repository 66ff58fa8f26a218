// Package notify e-mails session reports to caregivers through Amazon SES.
package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"

	"speechcoach/internal/models"
)

// sendTimeout bounds one report delivery
const sendTimeout = 20 * time.Second

// Sender is the subset of the SES client used here
type Sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// ProfileSource looks up the profile a report is about
type ProfileSource interface {
	Get(ctx context.Context, id int64) (*models.ChildProfile, error)
}

// Config holds the sender settings
type Config struct {
	AWSRegion string
	FromEmail string
	FromName  string
	Debug     bool
}

// ReportMailer sends session reports. A mailer without a from address is
// disabled and silently skips every report.
type ReportMailer struct {
	client    Sender
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
	logger    logrus.FieldLogger
}

// NewReportMailer creates a mailer using the default AWS credential chain
func NewReportMailer(ctx context.Context, cfg Config, logger logrus.FieldLogger) (*ReportMailer, error) {
	if cfg.FromEmail == "" {
		logger.Info("Report e-mail disabled: email.from_email not configured")
		return &ReportMailer{logger: logger, debug: cfg.Debug}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"from":   cfg.FromEmail,
		"region": cfg.AWSRegion,
	}).Info("Report e-mail enabled")
	return NewReportMailerWithSender(sesv2.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewReportMailerWithSender creates an enabled mailer around an existing client
func NewReportMailerWithSender(client Sender, cfg Config, logger logrus.FieldLogger) *ReportMailer {
	return &ReportMailer{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		enabled:   true,
		debug:     cfg.Debug,
		logger:    logger,
	}
}

// IsEnabled reports whether reports are sent
func (m *ReportMailer) IsEnabled() bool {
	return m.enabled
}

// SendReport e-mails the record to the profile's caregiver
func (m *ReportMailer) SendReport(ctx context.Context, profile *models.ChildProfile, rec *models.SessionRecord) error {
	if !m.enabled || profile == nil || profile.CaregiverEmail == "" {
		if m.debug {
			m.logger.WithField("session_id", rec.ID).Debug("Skipping session report")
		}
		return nil
	}

	view := newReportView(profile, rec)
	subject := fmt.Sprintf("%s's speech practice report", profile.Name)

	var html, text bytes.Buffer
	if err := reportHTML.Execute(&html, view); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := reportText.Execute(&text, view); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	return m.send(ctx, profile.CaregiverEmail, subject, html.String(), text.String())
}

// Notifier returns a callback that mails each saved record in the background
func (m *ReportMailer) Notifier(profiles ProfileSource) func(*models.SessionRecord) {
	return func(rec *models.SessionRecord) {
		if !m.enabled {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			profile, err := profiles.Get(ctx, rec.ProfileID)
			if err != nil {
				m.logger.WithError(err).WithField("profile_id", rec.ProfileID).Warn("Cannot load profile for session report")
				return
			}
			if err := m.SendReport(ctx, profile, rec); err != nil {
				m.logger.WithError(err).WithField("session_id", rec.ID).Warn("Failed to send session report")
			}
		}()
	}
}

func (m *ReportMailer) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	entry := m.logger.WithFields(logrus.Fields{"to": to, "subject": subject})
	if m.debug && result.MessageId != nil {
		entry = entry.WithField("message_id", *result.MessageId)
	}
	entry.Info("Session report sent")
	return nil
}

type reportView struct {
	Name          string
	Date          string
	Language      models.Language
	Difficulty    models.Difficulty
	Clarity       int
	Fluency       int
	Confidence    int
	Band          string
	Transcript    string
	Feedback      string
	PositiveNotes []string
	Improvements  []string
}

func newReportView(p *models.ChildProfile, rec *models.SessionRecord) reportView {
	return reportView{
		Name:          p.Name,
		Date:          rec.CreatedAt.Format("2 January 2006"),
		Language:      rec.LanguageUsed,
		Difficulty:    rec.DifficultyReached,
		Clarity:       int(rec.ClarityScore + 0.5),
		Fluency:       int(rec.FluencyScore + 0.5),
		Confidence:    int(rec.ConfidenceScore + 0.5),
		Band:          capitalize(models.ScoreBand(rec.OverallScore())),
		Transcript:    rec.Transcript,
		Feedback:      rec.AIFeedback,
		PositiveNotes: rec.PositiveNotes,
		Improvements:  rec.AreasOfImprovement,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var reportHTML = htmltemplate.Must(htmltemplate.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #7c5cbf; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.scores td { padding: 4px 12px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>{{.Name}}'s practice on {{.Date}}</h1>
		</div>
		<div class="content">
			<p>{{.Language}} practice at {{.Difficulty}} level. Overall: <strong>{{.Band}}</strong></p>
			<table class="scores">
				<tr><td>Clarity</td><td>{{.Clarity}}</td></tr>
				<tr><td>Fluency</td><td>{{.Fluency}}</td></tr>
				<tr><td>Confidence</td><td>{{.Confidence}}</td></tr>
			</table>
			<p>{{.Feedback}}</p>
			{{if .PositiveNotes}}<h3>What went well</h3>
			<ul>{{range .PositiveNotes}}<li>{{.}}</li>{{end}}</ul>{{end}}
			{{if .Improvements}}<h3>Keep practising</h3>
			<ul>{{range .Improvements}}<li>{{.}}</li>{{end}}</ul>{{end}}
			<p style="font-size: 12px; color: #666;">{{.Transcript}}</p>
		</div>
		<div class="footer">
			<p>This is an automated email from Speech Coach. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`))

var reportText = texttemplate.Must(texttemplate.New("report").Parse(`{{.Name}}'s practice on {{.Date}}

{{.Language}} practice at {{.Difficulty}} level. Overall: {{.Band}}

Clarity:    {{.Clarity}}
Fluency:    {{.Fluency}}
Confidence: {{.Confidence}}

{{.Feedback}}
{{if .PositiveNotes}}
What went well:
{{range .PositiveNotes}}- {{.}}
{{end}}{{end}}{{if .Improvements}}
Keep practising:
{{range .Improvements}}- {{.}}
{{end}}{{end}}
{{.Transcript}}

---
This is an automated email from Speech Coach. Please do not reply.
`))
