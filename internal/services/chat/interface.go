package chat

import (
	"context"

	"github.com/iyunix/go-medreport/internal/domain"
)

// Agent produces the assistant's reply. It never fails; problems are
// folded into the returned text. Pinned analyses are placed ahead of the
// retrieved ones.
type Agent interface {
	Respond(ctx context.Context, userID, message string, history []domain.ChatTurn, pinned ...domain.MedicalReportAnalysis) string
}
