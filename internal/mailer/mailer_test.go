package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

func TestRenderer_AllKindsParse(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	for kind := range subjects {
		m, err := r.Render(kind, "a@example.com", View{Name: "Asha", Booking: BookingView{ID: 1}})
		require.NoError(t, err, kind)
		assert.Equal(t, kind, m.Kind)
		assert.Contains(t, m.HTML, "GoFly Travel Agency")
	}
}

func TestRenderer_PasswordResetCarriesLink(t *testing.T) {
	m, err := MustRenderer().Render(KindPasswordReset, "a@example.com", View{
		Name: "Asha",
		Link: "http://localhost:3000/reset-password/abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reset your GoFly Travel Agency password", m.Subject)
	assert.Contains(t, m.HTML, "http://localhost:3000/reset-password/abc123")
}

func TestRenderer_EscapesUserInput(t *testing.T) {
	m, err := MustRenderer().Render(KindContactNotice, "admin@gofly.com", View{
		Name:    "<script>x</script>",
		Message: "hello there friend",
	})
	require.NoError(t, err)
	assert.NotContains(t, m.HTML, "<script>")
}

func TestRenderer_CancellationRefundLine(t *testing.T) {
	r := MustRenderer()
	withRefund, err := r.Render(KindCancellation, "a@example.com", View{Booking: BookingView{RefundID: "rfnd_1", WasPaid: true}})
	require.NoError(t, err)
	assert.Contains(t, withRefund.HTML, "rfnd_1")

	manual, err := r.Render(KindCancellation, "a@example.com", View{Booking: BookingView{WasPaid: true}})
	require.NoError(t, err)
	assert.Contains(t, manual.HTML, "contact you about your refund")
}

func TestRenderer_UnknownKind(t *testing.T) {
	_, err := MustRenderer().Render("nope", "a@example.com", View{})
	assert.Error(t, err)
}

func TestSMTPSender_DisabledAndUnconfigured(t *testing.T) {
	ctx := context.Background()

	off := NewSMTPSender(settings.NewResolver(settings.NewMemoryStore(map[string]any{
		settings.SMTPEnabled: false,
	}), nil, 0))
	assert.ErrorIs(t, off.Send(ctx, Message{To: "a@example.com"}), ErrDisabled)

	t.Setenv("SMTP_EMAIL", "")
	t.Setenv("SMTP_PASSWORD", "")
	blank := NewSMTPSender(settings.NewResolver(settings.NewMemoryStore(map[string]any{
		settings.SMTPEnabled: true,
	}), nil, 0))
	assert.ErrorIs(t, blank.Send(ctx, Message{To: "a@example.com"}), ErrNotConfigured)
}
