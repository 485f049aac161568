package squarespace

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"squarespace-chatwoot-integrator/internal/chatwoot"
	"squarespace-chatwoot-integrator/internal/model"
)

// Handler recebe webhooks de formulário do Squarespace e orquestra o fluxo
// contato → conversa → mensagem no Chatwoot.
type Handler struct {
	chatwoot *chatwoot.Client
	logger   *slog.Logger
}

func NewHandler(log *slog.Logger, client *chatwoot.Client) *Handler {
	return &Handler{
		chatwoot: client,
		logger:   log.With(slog.String("handler", "squarespace")),
	}
}

// Register monta a rota do webhook na instância echo.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/webhooks/squarespace", h.Receive)
}

// Receive valida o payload e executa as três chamadas ao Chatwoot em sequência;
// cada uma depende do id devolvido pela anterior. Falhas internas nunca vazam
// para o remetente: tudo vira o mesmo 500 genérico.
func (h *Handler) Receive(c echo.Context) error {
	var payload model.WebhookPayload
	if err := c.Bind(&payload); err != nil || payload.FormSubmission == nil {
		h.logger.Warn("payload sem formSubmission", slog.Any("erro", err))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid Squarespace payload"})
	}

	submission := payload.FormSubmission
	fields := submission.Fields

	email, _ := fields.Extract("email", "Email Address")
	phone, _ := fields.Extract("phone", "Phone Number")
	name, _ := fields.Extract("name", "Full Name", "First Name")
	message, _ := fields.Extract("message", "Question", "Comments")

	// Chave de resolução do contato: email, senão telefone, senão o id da
	// própria submissão. Nunca vazia.
	identifier := email
	if identifier == "" {
		identifier = phone
	}
	if identifier == "" {
		identifier = submission.ID
	}

	metadata := map[string]any{
		"squarespace_form_id":              submission.ID,
		"squarespace_form_name":            submission.FormName,
		"squarespace_submission_timestamp": submission.Timestamp,
	}
	if payload.Website != nil && payload.Website.ID != "" {
		metadata["squarespace_site_id"] = payload.Website.ID
	}

	log := h.logger.With(
		slog.String("relay_id", uuid.NewString()),
		slog.String("form", submission.FormName),
		slog.String("submission_id", submission.ID),
	)

	ctx := c.Request().Context()

	contact, err := h.chatwoot.CreateOrFindContact(ctx, chatwoot.ContactDraft{
		Name:       name,
		Email:      email,
		Phone:      phone,
		Identifier: identifier,
		Metadata:   metadata,
	})
	if err != nil {
		return h.fail(c, log, "erro resolvendo contato", err)
	}

	contactID, ok := chatwoot.PayloadID(contact)
	if !ok {
		return h.fail(c, log, "resposta de contato sem id", fmt.Errorf("contact body: %v", contact))
	}

	conversation, err := h.chatwoot.CreateConversation(ctx, contactID)
	if err != nil {
		return h.fail(c, log, "erro criando conversa", err)
	}

	conversationID, ok := chatwoot.PayloadID(conversation)
	if !ok {
		return h.fail(c, log, "resposta de conversa sem id", fmt.Errorf("conversation body: %v", conversation))
	}

	content := buildMessageContent(submission, message, name, email, phone)

	if _, err := h.chatwoot.CreateMessage(ctx, conversationID, content); err != nil {
		return h.fail(c, log, "erro anexando mensagem", err)
	}

	log.Info("submissão retransmitida",
		slog.Int64("contact_id", contactID),
		slog.Int64("conversation_id", conversationID),
	)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) fail(c echo.Context, log *slog.Logger, msg string, err error) error {
	log.Error(msg, slog.Any("erro", err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to relay to Chatwoot"})
}
