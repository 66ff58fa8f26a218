package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechcoach/internal/models"
)

type fakeSender struct {
	mu    sync.Mutex
	err   error
	input []*sesv2.SendEmailInput
}

func (f *fakeSender) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.input = append(f.input, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func (f *fakeSender) sent() []*sesv2.SendEmailInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*sesv2.SendEmailInput(nil), f.input...)
}

type profileMap map[int64]*models.ChildProfile

func (p profileMap) Get(ctx context.Context, id int64) (*models.ChildProfile, error) {
	if profile, ok := p[id]; ok {
		return profile, nil
	}
	return nil, models.ErrNotFound
}

func testRecord() *models.SessionRecord {
	return &models.SessionRecord{
		ID:                 4,
		ProfileID:          1,
		LanguageUsed:       models.LanguageEnglish,
		DifficultyReached:  models.DifficultyBeginner,
		ClarityScore:       81,
		FluencyScore:       85,
		ConfidenceScore:    83,
		AIFeedback:         "Great job <b>today</b>",
		PositiveNotes:      []string{"Completed 5 words successfully!"},
		AreasOfImprovement: []string{"Regular practice will improve fluency"},
		CreatedAt:          time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestSendReport(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	sender := &fakeSender{}
	m := NewReportMailerWithSender(sender, Config{FromEmail: "coach@example.com", FromName: "Speech Coach"}, logger)

	profile := &models.ChildProfile{ID: 1, Name: "Nila", CaregiverEmail: "parent@example.com"}
	require.NoError(t, m.SendReport(context.Background(), profile, testRecord()))

	sent := sender.sent()
	require.Len(t, sent, 1)
	in := sent[0]
	assert.Equal(t, "Speech Coach <coach@example.com>", *in.FromEmailAddress)
	assert.Equal(t, []string{"parent@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Nila's speech practice report", *in.Content.Simple.Subject.Data)

	html := *in.Content.Simple.Body.Html.Data
	assert.Contains(t, html, "Strong")
	assert.Contains(t, html, "2 April 2026")
	assert.Contains(t, html, "Great job &lt;b&gt;today&lt;/b&gt;")

	text := *in.Content.Simple.Body.Text.Data
	assert.Contains(t, text, "Clarity:    81")
	assert.Contains(t, text, "- Completed 5 words successfully!")
}

func TestSendReportSkips(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	sender := &fakeSender{}
	m := NewReportMailerWithSender(sender, Config{FromEmail: "coach@example.com"}, logger)

	require.NoError(t, m.SendReport(context.Background(), &models.ChildProfile{Name: "Nila"}, testRecord()))
	assert.Empty(t, sender.sent())

	disabled, err := NewReportMailer(context.Background(), Config{}, logger)
	require.NoError(t, err)
	assert.False(t, disabled.IsEnabled())
	require.NoError(t, disabled.SendReport(context.Background(),
		&models.ChildProfile{Name: "Nila", CaregiverEmail: "p@example.com"}, testRecord()))
}

func TestSendReportError(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	m := NewReportMailerWithSender(&fakeSender{err: errors.New("throttled")}, Config{FromEmail: "coach@example.com"}, logger)
	err := m.SendReport(context.Background(), &models.ChildProfile{Name: "Nila", CaregiverEmail: "p@example.com"}, testRecord())
	assert.ErrorContains(t, err, "throttled")
}

func TestNotifierSendsInBackground(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	sender := &fakeSender{}
	m := NewReportMailerWithSender(sender, Config{FromEmail: "coach@example.com"}, logger)
	profiles := profileMap{1: {ID: 1, Name: "Nila", CaregiverEmail: "parent@example.com"}}

	m.Notifier(profiles)(testRecord())

	assert.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 5*time.Millisecond)
}
