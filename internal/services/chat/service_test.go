package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iyunix/go-medreport/internal/database"
	"github.com/iyunix/go-medreport/internal/domain"
	chatrepo "github.com/iyunix/go-medreport/internal/repository/chat"
	messagerepo "github.com/iyunix/go-medreport/internal/repository/message"
	reportrepo "github.com/iyunix/go-medreport/internal/repository/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAgent struct {
	RespondFunc func(ctx context.Context, userID, message string, history []domain.ChatTurn, pinned ...domain.MedicalReportAnalysis) string
}

var _ Agent = (*MockAgent)(nil)

func (m *MockAgent) Respond(ctx context.Context, userID, message string, history []domain.ChatTurn, pinned ...domain.MedicalReportAnalysis) string {
	return m.RespondFunc(ctx, userID, message, history, pinned...)
}

type recordingAgent struct {
	reply   string
	history []domain.ChatTurn
	pinned  []domain.MedicalReportAnalysis
}

func (r *recordingAgent) agent() *MockAgent {
	return &MockAgent{RespondFunc: func(ctx context.Context, userID, message string, history []domain.ChatTurn, pinned ...domain.MedicalReportAnalysis) string {
		r.history = history
		r.pinned = pinned
		return r.reply
	}}
}

type fixture struct {
	svc      *Service
	chats    chatrepo.ChatRepository
	messages messagerepo.MessageRepository
	reports  reportrepo.ReportRepository
}

func newFixture(t *testing.T, agent Agent) *fixture {
	t.Helper()
	db, err := database.Open("sqlite://", false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	f := &fixture{
		chats:    chatrepo.NewChatRepository(db),
		messages: messagerepo.NewMessageRepository(db),
		reports:  reportrepo.NewReportRepository(db),
	}
	f.svc = NewService(f.chats, f.messages, f.reports, agent, nopLogger{})
	return f
}

func TestConverseCreatesChat(t *testing.T) {
	rec := &recordingAgent{reply: "Creatinine is a waste product filtered by the kidneys."}
	f := newFixture(t, rec.agent())
	ctx := context.Background()

	res, err := f.svc.Converse(ctx, ConverseRequest{
		UserID:  "patient-1",
		Message: "What does high creatinine mean?",
		History: []domain.ChatTurn{{Role: domain.RoleUser, Content: "earlier question"}},
	})
	require.NoError(t, err)
	assert.Equal(t, rec.reply, res.Reply)
	require.NotEmpty(t, res.ChatID)
	assert.Equal(t, []domain.ChatTurn{{Role: domain.RoleUser, Content: "earlier question"}}, rec.history)

	chat, err := f.chats.FindByID(ctx, res.ChatID)
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "What does high creatinine mean?", chat.Title)
	assert.Equal(t, domain.ChatStatusActive, chat.Status)

	msgs, err := f.svc.ListMessages(ctx, res.ChatID, "")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.MessageOwnerUser, msgs[0].Owner)
	assert.Equal(t, "What does high creatinine mean?", msgs[0].Body)
	assert.Equal(t, domain.MessageOwnerModel, msgs[1].Owner)
	assert.Equal(t, rec.reply, msgs[1].Body)
}

func TestConverseUsesStoredHistory(t *testing.T) {
	rec := &recordingAgent{reply: "first answer"}
	f := newFixture(t, rec.agent())
	ctx := context.Background()

	first, err := f.svc.Converse(ctx, ConverseRequest{UserID: "patient-1", Message: "first question"})
	require.NoError(t, err)

	rec.reply = "second answer"
	second, err := f.svc.Converse(ctx, ConverseRequest{
		UserID:  "patient-1",
		ChatID:  first.ChatID,
		Message: "second question",
		History: []domain.ChatTurn{{Role: domain.RoleUser, Content: "ignored"}},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ChatID, second.ChatID)
	assert.Equal(t, []domain.ChatTurn{
		{Role: domain.RoleUser, Content: "first question"},
		{Role: domain.RoleModel, Content: "first answer"},
	}, rec.history)

	msgs, err := f.svc.ListMessages(ctx, first.ChatID, "patient-1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}
	assert.Equal(t, "second answer", msgs[3].Body)
}

func TestConverseRejectsForeignChat(t *testing.T) {
	rec := &recordingAgent{reply: "x"}
	f := newFixture(t, rec.agent())
	ctx := context.Background()

	owned, err := f.svc.CreateChat(ctx, "patient-1", "mine", nil)
	require.NoError(t, err)

	_, err = f.svc.Converse(ctx, ConverseRequest{UserID: "patient-2", ChatID: owned.ID, Message: "hi"})
	assert.True(t, errors.Is(err, ErrChatNotFound))

	_, err = f.svc.Converse(ctx, ConverseRequest{UserID: "patient-1", ChatID: "missing", Message: "hi"})
	assert.True(t, errors.Is(err, ErrChatNotFound))

	msgs, err := f.svc.ListMessages(ctx, owned.ID, "patient-2")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConverseValidation(t *testing.T) {
	f := newFixture(t, (&recordingAgent{}).agent())
	ctx := context.Background()

	_, err := f.svc.Converse(ctx, ConverseRequest{UserID: "", Message: "hi"})
	assert.True(t, IsValidation(err))
	_, err = f.svc.Converse(ctx, ConverseRequest{UserID: "patient-1", Message: "  "})
	assert.True(t, IsValidation(err))
}

func TestAgentFailureIsStoredAsApology(t *testing.T) {
	agent := newAgent(t, answering("", errors.New("network down")), noResults())
	f := newFixture(t, agent)

	res, err := f.svc.Converse(context.Background(), ConverseRequest{UserID: "patient-1", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, FailureReply, res.Reply)

	msgs, err := f.svc.ListMessages(context.Background(), res.ChatID, "")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, FailureReply, msgs[1].Body)
}

func TestCreateChat(t *testing.T) {
	f := newFixture(t, (&recordingAgent{}).agent())
	ctx := context.Background()

	chat, err := f.svc.CreateChat(ctx, "patient-1", "   ", nil)
	require.NoError(t, err)
	assert.Equal(t, "New chat", chat.Title)

	long := strings.Repeat("é", 250)
	chat, err = f.svc.CreateChat(ctx, "patient-1", long, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, len([]rune(chat.Title)))

	_, err = f.svc.CreateChat(ctx, "", "t", nil)
	assert.True(t, IsValidation(err))

	chats, err := f.svc.ListChats(ctx, "patient-1")
	require.NoError(t, err)
	assert.Len(t, chats, 2)
}

func TestLinkedReportIsPinned(t *testing.T) {
	rec := &recordingAgent{reply: "ok"}
	f := newFixture(t, rec.agent())
	ctx := context.Background()

	_, err := f.reports.Create(ctx, &domain.Report{ID: "r-1", UserID: "patient-1", Status: domain.ReportStatusProcessing})
	require.NoError(t, err)
	require.NoError(t, f.reports.MarkCompleted(ctx, "r-1", "CBC Panel", "Normal counts.",
		[]byte(`{"title":"CBC Panel","summary":"Normal counts.","conclusion":"No action needed."}`)))
	_, err = f.reports.Create(ctx, &domain.Report{ID: "r-2", UserID: "patient-2", Status: domain.ReportStatusProcessing})
	require.NoError(t, err)

	reportID := "r-1"
	chat, err := f.svc.CreateChat(ctx, "patient-1", "About my CBC", &reportID)
	require.NoError(t, err)
	require.NotNil(t, chat.ReportID)

	_, err = f.svc.Converse(ctx, ConverseRequest{UserID: "patient-1", ChatID: chat.ID, Message: "Explain it"})
	require.NoError(t, err)
	require.Len(t, rec.pinned, 1)
	assert.Equal(t, "CBC Panel", rec.pinned[0].Title)
	assert.Equal(t, "r-1", rec.pinned[0].ReportID)

	foreign := "r-2"
	_, err = f.svc.CreateChat(ctx, "patient-1", "not mine", &foreign)
	assert.True(t, IsValidation(err))
}

func TestDeleteChat(t *testing.T) {
	f := newFixture(t, (&recordingAgent{reply: "ok"}).agent())
	ctx := context.Background()

	res, err := f.svc.Converse(ctx, ConverseRequest{UserID: "patient-1", Message: "hello"})
	require.NoError(t, err)

	deleted, err := f.svc.DeleteChat(ctx, res.ChatID, "patient-2")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = f.svc.DeleteChat(ctx, res.ChatID, "patient-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	msgs, err := f.messages.FindByChatID(ctx, res.ChatID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	deleted, err = f.svc.DeleteChat(ctx, res.ChatID, "patient-1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = f.svc.DeleteChat(ctx, res.ChatID, "")
	assert.True(t, IsValidation(err))
}
